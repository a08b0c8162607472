// Package advisor holds the LLM-backed caption writer and compliance reviewers.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/blacktop/genpost/internal/llm"
	"github.com/blacktop/genpost/internal/logutil"
)

const (
	reviewTemperature = 0.3
	reviewMaxTokens   = 800
)

// Advisor runs caption and compliance prompts against a Completer.
type Advisor struct {
	completer     llm.Completer
	model         string
	guidelinesDir string
}

// Option customizes an Advisor.
type Option func(*Advisor)

// WithModel overrides the completer's default model.
func WithModel(model string) Option {
	return func(a *Advisor) { a.model = strings.TrimSpace(model) }
}

// WithGuidelinesDir changes where guideline overrides are read from.
func WithGuidelinesDir(dir string) Option {
	return func(a *Advisor) { a.guidelinesDir = dir }
}

// New returns an Advisor.
func New(completer llm.Completer, opts ...Option) *Advisor {
	a := &Advisor{completer: completer, guidelinesDir: DefaultGuidelinesDir}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CheckPolicy reviews content and its caption against the policy guidelines.
func (a *Advisor) CheckPolicy(ctx context.Context, description, caption, platform string) (string, error) {
	guidelines, err := Guidelines(a.guidelinesDir, PolicyGuidelines)
	if err != nil {
		return "", err
	}
	platform = strings.TrimSpace(platform)
	if platform == "" {
		platform = "general"
	}
	if strings.TrimSpace(caption) == "" {
		caption = "None provided"
	}

	logutil.Debugf("policy check: platform=%s", platform)
	return a.complete(ctx, "policy compliance check", llm.Request{
		System: fmt.Sprintf(policySystemPrompt, guidelines, platform),
		User:   fmt.Sprintf("Review this content:\n\nPLATFORM: %s\nCONTENT: %s\nCAPTION: %s\n\nProvide your compliance assessment.", platform, description, caption),
	})
}

// CheckDesign reviews a described image or video against the design guidelines.
func (a *Advisor) CheckDesign(ctx context.Context, description, contentType, resolution string) (string, error) {
	guidelines, err := Guidelines(a.guidelinesDir, DesignGuidelines)
	if err != nil {
		return "", err
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		contentType = "image"
	}
	if strings.TrimSpace(resolution) == "" {
		resolution = "Not specified"
	}

	logutil.Debugf("design check: type=%s resolution=%s", contentType, resolution)
	return a.complete(ctx, "design compliance check", llm.Request{
		System: fmt.Sprintf(designSystemPrompt, guidelines, contentType, strings.ToUpper(contentType)),
		User:   fmt.Sprintf("Review this %s:\n\nDESCRIPTION: %s\nRESOLUTION: %s\n\nProvide your design compliance assessment.", contentType, description, resolution),
	})
}

func (a *Advisor) complete(ctx context.Context, what string, req llm.Request) (string, error) {
	if a.completer == nil {
		return "", fmt.Errorf("%s: no completion service configured", what)
	}
	req.Model = a.model
	req.Temperature = reviewTemperature
	req.MaxTokens = reviewMaxTokens
	report, err := a.completer.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	return report, nil
}

const policySystemPrompt = `You are a content policy compliance reviewer.
Evaluate the content against these guidelines:

%s

EVALUATION CRITERIA:
1. PROHIBITED CONTENT - Check for violence, discrimination, misleading claims, copyright issues
2. BRAND VOICE - Professional, inclusive, no exaggerations
3. PLATFORM FIT - Appropriate tone for %s (LinkedIn=professional, Instagram=casual OK, Facebook=conversational)
4. LEGAL - Proper disclosures if needed

OUTPUT FORMAT (use exactly this format):
═══════════════════════════════════════
   POLICY COMPLIANCE REPORT
═══════════════════════════════════════

STATUS: [✅ PASS / ⚠️ WARNING / ❌ FAIL]
SCORE: [X/10]

CHECKS:
• Prohibited Content: [✅/❌] [brief note]
• Brand Voice: [✅/❌] [brief note]
• Platform Fit: [✅/❌] [brief note]
• Legal Compliance: [✅/❌] [brief note]

ISSUES: [List any problems, or "None"]

RECOMMENDATIONS: [List fixes if needed, or "Content is compliant"]
═══════════════════════════════════════
`

const designSystemPrompt = `You are a design compliance reviewer for visual content.
Evaluate the content against these guidelines:

%s

EVALUATION CRITERIA:
1. COLORS - Professional colors, high contrast, no neon
2. COMPOSITION - Good framing, clean background, proper lighting
3. QUALITY - High resolution, sharp focus, no artifacts
4. ACCESSIBILITY - Good contrast, no strobing

NOTE: You cannot see the actual %s, so evaluate based on the description.
Flag items that need manual visual review.

OUTPUT FORMAT (use exactly this format):
═══════════════════════════════════════
   DESIGN COMPLIANCE REPORT
═══════════════════════════════════════

STATUS: [✅ PASS / ⚠️ WARNING / ❌ FAIL]
SCORE: [X/10]
TYPE: [%s]

CHECKS:
• Colors: [✅/⚠️/❌] [brief note]
• Composition: [✅/⚠️/❌] [brief note]
• Quality: [✅/⚠️/❌] [brief note]
• Accessibility: [✅/⚠️/❌] [brief note]

ISSUES: [List any problems, or "None identified"]

NEEDS MANUAL REVIEW: [List items requiring visual check]

RECOMMENDATIONS: [List suggestions if needed]
═══════════════════════════════════════
`
