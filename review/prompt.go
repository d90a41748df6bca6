package review

import (
	"fmt"
	"strings"
)

// maxPromptPatchBytes caps how much patch text goes into one narrative
// request. ~80KB corresponds to roughly 20K tokens.
const maxPromptPatchBytes = 80 * 1024

const truncationNotice = "\n[patch truncated]"

const narrativeInstructions = `Please review this code patch and provide specific, actionable feedback about potential issues, improvements, and best practices. Consider performance, security, maintainability, and language idioms.

Structure your response with these markdown headings: "## Summary" (1-3 sentence overall assessment), "## Feedback" (bulleted list of concrete observations), and "## Additional Context Needed" (only if something outside the patch prevents a confident judgement).`

// BuildNarrativePrompt assembles the review prompt for one patch.
// Oversized patches are truncated at a line boundary so the request stays
// within a predictable token budget.
func BuildNarrativePrompt(patch string) string {
	patch = truncatePatch(patch, maxPromptPatchBytes)
	return fmt.Sprintf("%s\n\n```\n%s\n```", narrativeInstructions, patch)
}

// truncatePatch cuts the patch to at most limit bytes, dropping the final
// partial line and appending a notice so the model knows content is
// missing.
func truncatePatch(patch string, limit int) string {
	if len(patch) <= limit {
		return patch
	}

	cut := patch[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + truncationNotice
}
