package chat

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/arunse/coursechat/pkg/adapter"
	"github.com/arunse/coursechat/pkg/model"
	"github.com/arunse/coursechat/pkg/repository"
	"github.com/arunse/coursechat/pkg/tool"
	"github.com/arunse/coursechat/pkg/utils/logging"
)

//go:embed prompt/system.md
var systemPrompt string

const (
	defaultMaxRounds  = 2
	defaultMaxHistory = 10
)

// Session drives the tool-calling conversation loop. The model decides per
// question whether to call retrieval tools; the session executes the calls,
// feeds results back, and bounds the number of tool rounds.
type Session struct {
	gemini   adapter.Gemini
	registry *tool.Registry
	repo     repository.Repository

	maxRounds  int
	maxHistory int

	conversation *model.Conversation
}

// NewInput contains parameters for creating a chat session. Repo may be nil
// for one-shot sessions without persistence. ConversationID resumes an
// existing thread when set.
type NewInput struct {
	Gemini         adapter.Gemini
	Registry       *tool.Registry
	Repo           repository.Repository
	ConversationID model.ConversationID
	MaxRounds      int
	MaxHistory     int
}

// Answer is the final response to one question, with the citations of the
// last productive tool call.
type Answer struct {
	Text      string
	Citations []model.Citation
}

func New(ctx context.Context, input NewInput) (*Session, error) {
	s := &Session{
		gemini:     input.Gemini,
		registry:   input.Registry,
		repo:       input.Repo,
		maxRounds:  input.MaxRounds,
		maxHistory: input.MaxHistory,
	}
	if s.maxRounds <= 0 {
		s.maxRounds = defaultMaxRounds
	}
	if s.maxHistory <= 0 {
		s.maxHistory = defaultMaxHistory
	}

	if input.ConversationID != "" && input.Repo != nil {
		conv, err := input.Repo.GetConversation(ctx, input.ConversationID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load conversation", goerr.V("id", input.ConversationID))
		}
		s.conversation = conv
	} else {
		now := time.Now()
		s.conversation = &model.Conversation{
			ID:        model.NewConversationID(),
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	return s, nil
}

// ConversationID returns the identifier of the session's thread.
func (s *Session) ConversationID() model.ConversationID {
	return s.conversation.ID
}

// Ask answers one question. Tool rounds are limited to maxRounds; after the
// limit the model is called once more with tools disabled so it must answer
// from the results it already has.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	contents := s.historyContents()
	contents = append(contents, genai.NewContentFromText(question, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		Tools:             s.registry.Specs(),
	}

	answer := &Answer{}
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "context cancelled during chat round", goerr.V("round", round))
		}
		toolsDisabled := round >= s.maxRounds
		if toolsDisabled {
			config.Tools = nil
		}

		resp, err := s.gemini.GenerateContent(ctx, contents, config)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate content")
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, goerr.New("model returned no candidates")
		}

		content := resp.Candidates[0].Content
		contents = append(contents, content)

		// The tools-disabled call is terminal: its text is the answer even
		// if the model still emits function calls.
		calls := functionCalls(content)
		if len(calls) == 0 || toolsDisabled {
			answer.Text = textContent(content)
			break
		}

		var parts []*genai.Part
		for _, call := range calls {
			result, err := s.registry.Dispatch(ctx, *call)
			if err != nil {
				logging.From(ctx).Warn("tool execution failed", "tool", call.Name, "error", err)
				result = &tool.Result{Text: fmt.Sprintf("Tool execution failed: %v", err)}
			}
			if len(result.Citations) > 0 {
				answer.Citations = result.Citations
			}

			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: map[string]any{"result": result.Text},
				},
			})
		}

		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: parts,
		})
	}

	if answer.Text == "" {
		answer.Text = "I could not produce an answer. Please try rephrasing your question."
	}

	s.appendTurns(question, answer.Text)
	if s.repo != nil {
		if err := s.repo.PutConversation(ctx, s.conversation); err != nil {
			logging.From(ctx).Warn("failed to save conversation", "id", s.conversation.ID, "error", err)
		}
	}

	return answer, nil
}

// historyContents converts the stored turns into model contents, keeping
// only the most recent maxHistory turns.
func (s *Session) historyContents() []*genai.Content {
	turns := s.conversation.Turns
	if len(turns) > s.maxHistory {
		turns = turns[len(turns)-s.maxHistory:]
	}

	var contents []*genai.Content
	for _, turn := range turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	return contents
}

func (s *Session) appendTurns(question, answer string) {
	if s.conversation.Title == "" {
		s.conversation.Title = question
	}
	s.conversation.Turns = append(s.conversation.Turns,
		model.Turn{Role: model.RoleUser, Content: question},
		model.Turn{Role: model.RoleAssistant, Content: answer},
	)
	s.conversation.UpdatedAt = time.Now()
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func textContent(content *genai.Content) string {
	var text string
	for _, part := range content.Parts {
		text += part.Text
	}
	return text
}
