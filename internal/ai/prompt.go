package ai

import (
	"fmt"
	"strings"

	"github.com/tidwall/pretty"
)

// BuildPrompt renders the comparison prompt for one chunk.
//
// Fields are listed by position so the model can answer with a fieldIndex
// instead of repeating the address; the normalizer resolves it back.
func BuildPrompt(req ChunkRequest) string {
	var b strings.Builder

	b.WriteString("Compare the form record below with an excerpt of the source document ")
	b.WriteString("and report every field whose value the excerpt contradicts.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Identify a field ONLY by \"fieldIndex\", the number in front of it in the field list. Do not invent fields.\n")
	b.WriteString("- Report a field only when the excerpt states a different value. Ignore fields the excerpt does not mention.\n")
	b.WriteString("- \"expected\" is the record's value and \"actual\" is the excerpt's value, both as strings ")
	b.WriteString("(stringify arrays, objects and numbers).\n")
	b.WriteString("- \"message\" is one short sentence explaining the disagreement.\n")
	b.WriteString("- Reply with JSON only, in this shape: ")
	b.WriteString(`{"mismatches":[{"fieldIndex":0,"expected":"...","actual":"...","message":"..."}]}`)
	b.WriteString("\n- If nothing disagrees reply with {\"mismatches\":[]}.\n\n")

	b.WriteString("Fields:\n")
	for i, addr := range req.Index.Addresses() {
		fmt.Fprintf(&b, "%d %s\n", i, addr)
	}

	b.WriteString("\nRecord:\n")
	if len(req.Record) > 0 {
		b.Write(pretty.Pretty(req.Record))
	} else {
		b.WriteString("null\n")
	}

	fmt.Fprintf(&b, "\nDocument excerpt (characters %d-%d):\n", req.Chunk.Start, req.Chunk.End)
	b.WriteString(req.Chunk.Text)
	b.WriteString("\n")

	return b.String()
}
