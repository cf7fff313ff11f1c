package driven

// Prompt template names.
const (
	// PromptAnswer is the RAG answer template. It takes the assembled
	// context and the user question, in that order.
	PromptAnswer = "answer"
)

// PromptStore loads LLM prompt templates.
// Implementations fall back to embedded defaults when a template is
// missing, so a nil-safe Load never leaves the caller without a prompt.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
