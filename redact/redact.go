// Package redact detects likely secrets in devlog entry text. Entries are
// free-form session dumps, which makes them a common place for API keys and
// tokens to leak; sync --check scans entries before they get committed
// alongside the index.
package redact

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// secretPattern matches high-entropy strings that may be secrets.
var secretPattern = regexp.MustCompile(`[A-Za-z0-9/+_=-]{10,}`)

// entropyThreshold is the minimum Shannon entropy for a string to be considered
// a secret. 4.5 was chosen through trial and error: high enough to avoid false
// positives on common words and identifiers, low enough to catch typical API keys
// and tokens which tend to have entropy well above 5.0.
const entropyThreshold = 4.5

var (
	gitleaksDetector     *detect.Detector
	gitleaksDetectorOnce sync.Once
)

func getDetector() *detect.Detector {
	gitleaksDetectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		gitleaksDetector = d
	})
	return gitleaksDetector
}

// Finding reports one likely secret in scanned text.
type Finding struct {
	Line int    // 1-based line number
	Rule string // gitleaks rule ID, or "entropy" for entropy-only hits
}

// Scan reports likely secrets in text using layered detection:
//  1. Entropy-based: high-entropy alphanumeric sequences (threshold 4.5)
//  2. Pattern-based: gitleaks regex rules (180+ known secret formats)
//
// A candidate is reported if EITHER method flags it. Findings never carry the
// secret itself, only its location and the rule that fired.
func Scan(text string) []Finding {
	var findings []Finding
	seen := make(map[string]bool)

	add := func(line int, rule string) {
		key := rule + ":" + strconv.Itoa(line)
		if seen[key] {
			return
		}
		seen[key] = true
		findings = append(findings, Finding{Line: line, Rule: rule})
	}

	for i, line := range strings.Split(text, "\n") {
		for _, loc := range secretPattern.FindAllStringIndex(line, -1) {
			if shannonEntropy(line[loc[0]:loc[1]]) > entropyThreshold {
				add(i+1, "entropy")
			}
		}
	}

	if d := getDetector(); d != nil {
		for _, f := range d.DetectString(text) {
			if f.Secret == "" {
				continue
			}
			add(f.StartLine+1, f.RuleID)
		}
	}

	return findings
}

func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[byte]int)
	for i := range len(s) {
		freq[s[i]]++
	}
	length := float64(len(s))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
