package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/carlosrabelo/netterm/domain/entities"
)

// DerivePrompt turns the raw prompt line into the base prompt and, for
// multi-context devices, the context name that follows the cut character.
func DerivePrompt(profile entities.VendorProfile, raw string) (base, secCtx string, err error) {
	rule := profile.Prompt
	if rule.NoBase {
		return "", "", nil
	}
	prompt := strings.TrimSpace(raw)

	if rule.StripPrefix != "" {
		re, err := regexp.Compile(rule.StripPrefix)
		if err != nil {
			return "", "", fmt.Errorf("invalid strip_prefix: %w", err)
		}
		prompt = re.ReplaceAllString(prompt, "")
	}

	runes := []rune(prompt)
	left, right := rule.TrimLeft, rule.TrimRight
	if left+right >= len(runes) {
		runes = nil
	} else {
		runes = runes[left : len(runes)-right]
	}
	prompt = string(runes)

	if rule.CutAt != "" {
		if before, after, found := strings.Cut(prompt, rule.CutAt); found {
			prompt, secCtx = before, after
		}
	}
	if rule.AfterAt {
		if _, after, found := strings.Cut(prompt, "@"); found {
			prompt = after
		}
	}
	return prompt, secCtx, nil
}

// BuildPromptPattern expands the profile template for the given base prompt.
// Modes with their own prompt, such as a Linux shell, are added as alternatives.
func BuildPromptPattern(profile entities.VendorProfile, base string) (Pattern, error) {
	limit := profile.Prompt.MaxChars
	if limit <= 0 {
		limit = entities.DefaultPromptChars
	}
	runes := []rune(base)
	if len(runes) > limit {
		runes = runes[:limit]
	}

	expr := strings.NewReplacer(
		"{prompt}", regexp.QuoteMeta(string(runes)),
		"{delimiters}", charClass(profile.Delimiters),
		"{left}", charClass(profile.LeftDelimiters),
	).Replace(profile.PromptTemplate)

	exprs := []string{expr}
	for _, m := range profile.Modes {
		exprs = append(exprs, m.Prompt)
	}
	return CompilePattern(exprs...)
}

// DelimiterPattern matches any single prompt delimiter
func DelimiterPattern(profile entities.VendorProfile) Pattern {
	return MustPattern("[" + charClass(profile.Delimiters) + "]")
}

func charClass(chars []string) string {
	var b strings.Builder
	for _, c := range chars {
		b.WriteString(regexp.QuoteMeta(c))
	}
	return b.String()
}
