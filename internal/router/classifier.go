package router

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/config"
	"github.com/bridgekit-ai/llm-bridge/internal/logger"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// Scenario is the classification bucket for a request's estimated
// complexity and shape.
type Scenario string

const (
	// ScenarioComplex covers reasoning, architecture and multi-step analysis
	ScenarioComplex Scenario = "complex"

	// ScenarioCode covers writing or reviewing code
	ScenarioCode Scenario = "code"

	// ScenarioLongContext covers requests with a large estimated token count
	ScenarioLongContext Scenario = "long-context"

	// ScenarioModerate covers general-purpose, balanced requests
	ScenarioModerate Scenario = "moderate"

	// ScenarioSimple covers short answers, definitions and greetings
	ScenarioSimple Scenario = "simple"
)

// AllScenarios lists every scenario in a stable order
var AllScenarios = []Scenario{
	ScenarioComplex,
	ScenarioCode,
	ScenarioLongContext,
	ScenarioModerate,
	ScenarioSimple,
}

// Default signal sets. The exact tuning is heuristic, not a correctness
// property; only the documented evaluation order is. Overridable via
// routing.signals in the config file.

var defaultComplexPatterns = []string{
	`\b(explain|analyze|architect|design|compare|evaluate|reason|trade-?off)\b`,
	`\b(step[- ]by[- ]step|in[- ]depth|thorough|comprehensive|detailed analysis)\b`,
	`\b(why does|how does .+ work|what are the implications)\b`,
	`\b(optimize|refactor|review .+ code|debug|root cause)\b`,
	`\b(implement .+ system|build .+ from scratch|create .+ architecture)\b`,
	`\b(proof|theorem|mathematical|algorithm complexity)\b`,
}

var defaultReasoningPatterns = []string{
	`\b(think|reason|consider|let's think|chain of thought)\b`,
	`\b(pros and cons|advantages|disadvantages|trade-?offs)\b`,
	`\b(plan|strategy|approach|methodology)\b`,
	`\b(philosophical|ethical|moral|existential)\b`,
}

var defaultCodePatterns = []string{
	`\b(write|generate|create|implement|code|function|class|module)\b.*\b(code|script|program|function|api|endpoint)\b`,
	"```",
	`\b(python|javascript|typescript|rust|go|java|c\+\+|sql|html|css)\b`,
	`\b(fix .+ bug|add .+ feature|write .+ test|create .+ file)\b`,
	`\b(import|export|require|from .+ import)\b`,
}

var defaultSimplePatterns = []string{
	`^(hi|hello|hey|thanks|thank you|ok|yes|no|sure)[.!]?$`,
	`^(what is|what's|who is|define|translate)\b.{0,50}$`,
	`^.{0,40}$`,
	`^(summarize|tldr|tl;dr)\b`,
}

var defaultModeratePatterns = []string{
	`\b(differences?|compare|overview|explain briefly|how to)\b`,
	`\b(example|show me|describe|what are the)\b`,
	`\b(best practice|recommend|suggest|which .+ should)\b`,
}

// Signals holds the compiled pattern sets used for scoring
type Signals struct {
	complex   []*regexp.Regexp
	reasoning []*regexp.Regexp
	code      []*regexp.Regexp
	simple    []*regexp.Regexp
	moderate  []*regexp.Regexp
}

func compilePatterns(override, defaults []string) []*regexp.Regexp {
	patterns := defaults
	if len(override) > 0 {
		patterns = override
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			logger.Warn("skipping invalid signal pattern",
				zap.String("pattern", p),
				zap.Error(err),
			)
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// NewSignals compiles the signal sets, applying config overrides where set
func NewSignals(c config.SignalsConfig) *Signals {
	return &Signals{
		complex:   compilePatterns(c.Complex, defaultComplexPatterns),
		reasoning: compilePatterns(c.Reasoning, defaultReasoningPatterns),
		code:      compilePatterns(c.Code, defaultCodePatterns),
		simple:    compilePatterns(c.Simple, defaultSimplePatterns),
		moderate:  compilePatterns(c.Moderate, defaultModeratePatterns),
	}
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	count := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			count++
		}
	}
	return count
}

// EstimateTokens gives a rough token estimate: ~4 chars per token for prose,
// ~2.5 for code-heavy text (more tokens per char due to symbols).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	codeIndicators := strings.Count(text, "```") +
		strings.Count(text, "def ") +
		strings.Count(text, "function ")
	var estimate int
	if codeIndicators >= 2 {
		estimate = int(float64(len(text)) / 2.5)
	} else {
		estimate = len(text) / 4
	}
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

// EstimateRequestTokens estimates the total token count across all messages
func EstimateRequestTokens(req *types.ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += EstimateTokens(msg.Content)
	}
	return total
}

// Scores holds the per-scenario signal scores computed for one request
type Scores struct {
	Complex  int
	Code     int
	Simple   int
	Moderate int
	Tokens   int
	Messages int
}

// Classification is the classifier's verdict for one request
type Classification struct {
	Scenario Scenario
	Reason   string
	Scores   Scores
}

// Classifier assigns a scenario to each incoming request. It is pure and
// deterministic: identical request content and configuration always yield
// the same scenario and scores.
type Classifier struct {
	signals              *Signals
	longContextThreshold int
}

// NewClassifier creates a classifier from routing configuration
func NewClassifier(c config.RoutingConfig) *Classifier {
	return &Classifier{
		signals:              NewSignals(c.Signals),
		longContextThreshold: c.LongContextThreshold,
	}
}

// Classify assigns a scenario to the request with a human-readable reason
func (c *Classifier) Classify(req *types.ChatCompletionRequest) Classification {
	tokens := EstimateRequestTokens(req)

	var parts []string
	lastUserMsg := ""
	hasSystemPrompt := false
	for _, msg := range req.Messages {
		if msg.Content != "" {
			parts = append(parts, msg.Content)
		}
		if msg.Role == types.RoleSystem {
			hasSystemPrompt = true
		}
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == types.RoleUser && req.Messages[i].Content != "" {
			lastUserMsg = req.Messages[i].Content
			break
		}
	}
	allContent := strings.Join(parts, " ")
	messageCount := len(req.Messages)

	// Long context short-circuits all other scoring
	if tokens > c.longContextThreshold {
		return Classification{
			Scenario: ScenarioLongContext,
			Reason:   fmt.Sprintf("Token count (%d) exceeds threshold (%d)", tokens, c.longContextThreshold),
			Scores:   Scores{Tokens: tokens, Messages: messageCount},
		}
	}

	complexScore := countMatches(allContent, c.signals.complex) +
		countMatches(allContent, c.signals.reasoning)
	if messageCount > 10 {
		complexScore += 2 // long conversations suggest complexity
	}
	if hasSystemPrompt && len(allContent) > 2000 {
		complexScore++
	}

	codeScore := countMatches(allContent, c.signals.code)
	if strings.Count(allContent, "```") >= 2 {
		codeScore += 2
	}

	// Simple signals only consider the last user message
	simpleScore := countMatches(lastUserMsg, c.signals.simple)
	if tokens < 50 && messageCount <= 2 {
		simpleScore += 2
	}
	if !hasSystemPrompt && tokens < 100 {
		simpleScore++
	}

	moderateScore := countMatches(allContent, c.signals.moderate)
	if tokens >= 100 && tokens <= 2000 && messageCount <= 5 {
		moderateScore++
	}

	scores := Scores{
		Complex:  complexScore,
		Code:     codeScore,
		Simple:   simpleScore,
		Moderate: moderateScore,
		Tokens:   tokens,
		Messages: messageCount,
	}

	logger.Debug("routing scores",
		zap.Int("complex", complexScore),
		zap.Int("code", codeScore),
		zap.Int("simple", simpleScore),
		zap.Int("moderate", moderateScore),
		zap.Int("tokens", tokens),
		zap.Int("messages", messageCount),
	)

	switch {
	case complexScore >= 3:
		return Classification{
			Scenario: ScenarioComplex,
			Reason:   fmt.Sprintf("High complexity score (%d): reasoning/analysis detected", complexScore),
			Scores:   scores,
		}
	case codeScore >= 3:
		return Classification{
			Scenario: ScenarioCode,
			Reason:   fmt.Sprintf("Code generation detected (score=%d)", codeScore),
			Scores:   scores,
		}
	case simpleScore >= 3 && complexScore < 2 && codeScore < 2 && moderateScore < 2:
		return Classification{
			Scenario: ScenarioSimple,
			Reason:   fmt.Sprintf("Simple query detected (score=%d, tokens=%d)", simpleScore, tokens),
			Scores:   scores,
		}
	case codeScore >= 2:
		return Classification{
			Scenario: ScenarioCode,
			Reason:   fmt.Sprintf("Code-related content detected (score=%d)", codeScore),
			Scores:   scores,
		}
	case complexScore >= 2:
		return Classification{
			Scenario: ScenarioComplex,
			Reason:   fmt.Sprintf("Moderate complexity detected (score=%d)", complexScore),
			Scores:   scores,
		}
	case moderateScore >= 2 || tokens > 200:
		return Classification{
			Scenario: ScenarioModerate,
			Reason:   fmt.Sprintf("Moderate task detected (score=%d, tokens=%d)", moderateScore, tokens),
			Scores:   scores,
		}
	default:
		return Classification{
			Scenario: ScenarioModerate,
			Reason:   fmt.Sprintf("General request (tokens=%d, msgs=%d)", tokens, messageCount),
			Scores:   scores,
		}
	}
}
