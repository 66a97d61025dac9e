package composer

// Per-mode system instructions. Selected server-side so the browser never
// carries task prompts; compliance relies on the manual-rules and document
// parts that Build places ahead of the query.
const (
	complianceInstruction = `You are a specialized HTS Compliance Engine for TRADE EXPEDITORS INC. DBA TEU GLOBAL.
Your goal is to perform lightning-fast classification of HTS codes against Section 232 Aluminum and Steel derivative lists.
Be precise. If a code matches a manual rule or document entry, extract the EXACT snippet.
Return ONLY valid JSON. Accuracy and speed are top priorities.`

	lookupInstruction = "Quick lookup of HTS provision details. Return JSON."

	headingsInstruction = "Extract HTS headings into JSON format."
)

func instructionFor(mode string) string {
	switch mode {
	case ModeLookup:
		return lookupInstruction
	case ModeHeadings:
		return headingsInstruction
	default:
		return complianceInstruction
	}
}
