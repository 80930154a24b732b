package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	anthropic "github.com/anthropics/anthropic-sdk-go"
)

const (
	maxToolRounds      = 5
	maxAttemptsPerTurn = 3
)

// ChatTurn is one prior exchange in the conversation, replayed to the
// model on every request.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
}

// ToolCallRecord is one executed tool invocation, surfaced so the UI can
// show what the assistant actually computed.
type ToolCallRecord struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type ChatResponse struct {
	Reply     string           `json:"reply"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
}

// modelTurn is the strict-JSON envelope the system prompt demands.
type modelTurn struct {
	Tool      string          `json:"tool,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Reply     string          `json:"reply,omitempty"`
}

// Advisor drives the chat panel: it relays the conversation to the
// model, executes the tool calls the model requests, and feeds results
// back until the model produces a final reply.
type Advisor struct {
	caller LLMCaller
	tools  *Toolkit
}

func New(caller LLMCaller, tools *Toolkit) *Advisor {
	return &Advisor{caller: caller, tools: tools}
}

func (a *Advisor) ModelName() string {
	if a == nil || a.caller == nil {
		return DefaultLLMModel
	}
	return a.caller.ModelName()
}

func (a *Advisor) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return ChatResponse{}, fmt.Errorf("chat: empty message")
	}

	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, turn := range req.History {
		switch turn.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Message)))

	resp := ChatResponse{}
	for round := 0; round < maxToolRounds; round++ {
		turn, raw, err := a.generateTurn(ctx, messages)
		if err != nil {
			return ChatResponse{}, err
		}

		if turn.Tool == "" {
			resp.Reply = turn.Reply
			return resp, nil
		}

		record := ToolCallRecord{Tool: turn.Tool, Arguments: turn.Arguments}
		args := turn.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		result, err := a.tools.Execute(ctx, turn.Tool, args)
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(raw)))
		if err != nil {
			record.Error = err.Error()
			log.Printf("advisor tool_error tool=%s err=%q", turn.Tool, err.Error())
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf(`{"tool_error": {"tool": %q, "error": %q}}`, turn.Tool, err.Error()))))
		} else {
			payload, merr := json.Marshal(result)
			if merr != nil {
				return ChatResponse{}, fmt.Errorf("chat: marshal tool result: %w", merr)
			}
			record.Result = payload
			log.Printf("advisor tool_ok tool=%s result_chars=%d", turn.Tool, len(payload))
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf(`{"tool_result": {"tool": %q, "result": %s}}`, turn.Tool, payload))))
		}
		resp.ToolCalls = append(resp.ToolCalls, record)
	}
	return ChatResponse{}, fmt.Errorf("chat: no final reply after %d tool rounds", maxToolRounds)
}

// generateTurn calls the model with transport retries and parses the
// strict-JSON envelope, repairing near-JSON before giving up.
func (a *Advisor) generateTurn(ctx context.Context, messages []anthropic.MessageParam) (modelTurn, string, error) {
	feedback := ""
	for attempt := 1; attempt <= maxAttemptsPerTurn; attempt++ {
		turnMessages := messages
		if feedback != "" {
			turnMessages = append(append([]anthropic.MessageParam{}, messages...),
				anthropic.NewUserMessage(anthropic.NewTextBlock(feedback)))
		}

		start := time.Now()
		raw, err := a.caller.Generate(ctx, turnMessages)
		if err != nil {
			class := classifyTransportError(err)
			log.Printf("advisor llm_transport_error attempt=%d class=%d elapsed_ms=%d err=%q",
				attempt, class, time.Since(start).Milliseconds(), err.Error())
			if attempt < maxAttemptsPerTurn && (class == failureTimeout || class == failureRateLimit || class == failureServer) {
				time.Sleep(backoffDelay(attempt))
				continue
			}
			return modelTurn{}, "", fmt.Errorf("chat transport failure: %w", err)
		}

		clean := stripCodeFences(raw)
		turn, perr := parseTurn(clean)
		if perr != nil {
			log.Printf("advisor llm_parse_error attempt=%d err=%q", attempt, perr.Error())
			if attempt < maxAttemptsPerTurn {
				feedback = `Your previous response was not the required JSON envelope. Reply with {"tool": ..., "arguments": {...}} or {"reply": "..."} only.`
				continue
			}
			return modelTurn{}, "", fmt.Errorf("chat: model output unparseable: %w", perr)
		}
		return turn, clean, nil
	}
	return modelTurn{}, "", fmt.Errorf("chat: no usable model output after %d attempts", maxAttemptsPerTurn)
}

func parseTurn(clean string) (modelTurn, error) {
	var turn modelTurn
	if err := json.Unmarshal([]byte(clean), &turn); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(clean)
		if rerr != nil {
			return modelTurn{}, err
		}
		if uerr := json.Unmarshal([]byte(repaired), &turn); uerr != nil {
			return modelTurn{}, uerr
		}
	}
	if turn.Tool == "" && turn.Reply == "" {
		return modelTurn{}, fmt.Errorf("envelope has neither tool nor reply")
	}
	return turn, nil
}
