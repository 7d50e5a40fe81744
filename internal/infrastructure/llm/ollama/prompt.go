package ollama

import (
	"fmt"
	"strings"

	"github.com/mkarpov/docchat/internal/core/domain"
)

const answerTemplate = `You are a professional AI PDF assistant that reads the document given and replies to
the user's questions always with accurate answers. If there is a chat history take it under consideration
and DO NOT repeat yourself.
The form of the answer should always be different for each question.

%s

Question: %s

Helpful Answer:`

func buildAnswerPrompt(question string, chunks []domain.ScoredChunk) string {
	var contextBuilder strings.Builder
	for idx, chunk := range chunks {
		if idx > 0 {
			contextBuilder.WriteString("\n\n")
		}
		contextBuilder.WriteString(chunk.Text)
	}
	return fmt.Sprintf(answerTemplate, contextBuilder.String(), question)
}
