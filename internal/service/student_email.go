package service

import (
	"regexp"
	"strings"
)

var emailShapeRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Classifier decides whether an address qualifies as an institutional/student
// email. Pure and total: malformed input returns false, never an error.
type Classifier struct {
	suffixes  []string
	blacklist map[string]struct{}
}

func NewClassifier(suffixes, blacklistedDomains []string) *Classifier {
	c := &Classifier{
		suffixes:  make([]string, 0, len(suffixes)),
		blacklist: make(map[string]struct{}, len(blacklistedDomains)),
	}
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			c.suffixes = append(c.suffixes, s)
		}
	}
	for _, d := range blacklistedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			c.blacklist[d] = struct{}{}
		}
	}
	return c
}

func (c *Classifier) IsStudentEmail(email string) bool {
	lower := strings.ToLower(strings.TrimSpace(email))
	if !emailShapeRe.MatchString(lower) {
		return false
	}

	domain := lower[strings.LastIndex(lower, "@")+1:]
	if _, banned := c.blacklist[domain]; banned {
		return false
	}

	for _, suffix := range c.suffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
