package mqtt

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTopicLength is the MQTT limit on encoded topic length.
const maxTopicLength = 65535

// placeholderPattern matches a topic template placeholder such as %sysname%.
var placeholderPattern = regexp.MustCompile(`%[a-z]+%`)

// Wildcard characters of topic filters.
const (
	wildcardSingle = "+"
	wildcardMulti  = "#"
)

// ValidateTopic checks a topic name used for publishing.
//
// Topic names must be non-empty UTF-8 without NUL characters or wildcards.
func ValidateTopic(topic string) error {
	if err := validateCommon(topic); err != nil {
		return err
	}
	if strings.ContainsAny(topic, wildcardSingle+wildcardMulti) {
		return fmt.Errorf("%w: wildcard in topic name %q", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidateFilter checks a topic filter used for subscribing.
//
// "+" must occupy a whole level; "#" must occupy the whole last level. A
// level holding an unexpanded %placeholder% means the subscribe template
// was not substituted and is rejected.
func ValidateFilter(filter string) error {
	if err := validateCommon(filter); err != nil {
		return err
	}
	if p := placeholderPattern.FindString(filter); p != "" {
		return fmt.Errorf("%w: unexpanded placeholder %s in %q", ErrInvalidFilter, p, filter)
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, wildcardMulti) && (level != wildcardMulti || i != len(levels)-1) {
			return fmt.Errorf("%w: misplaced %q in %q", ErrInvalidFilter, wildcardMulti, filter)
		}
		if strings.Contains(level, wildcardSingle) && level != wildcardSingle {
			return fmt.Errorf("%w: misplaced %q in %q", ErrInvalidFilter, wildcardSingle, filter)
		}
	}
	return nil
}

func validateCommon(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(topic) > maxTopicLength {
		return fmt.Errorf("%w: length %d exceeds %d", ErrInvalidTopic, len(topic), maxTopicLength)
	}
	if !utf8.ValidString(topic) || strings.ContainsRune(topic, 0) {
		return fmt.Errorf("%w: invalid characters", ErrInvalidTopic)
	}
	return nil
}

// MatchTopic reports whether a topic name matches a filter.
//
// Topics starting with "$" only match filters that name the "$" level
// explicitly.
func MatchTopic(filter, topic string) bool {
	if strings.HasPrefix(topic, "$") && !strings.HasPrefix(filter, "$") {
		return false
	}

	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")

	for i, f := range fl {
		if f == wildcardMulti {
			return true
		}
		if i >= len(tl) {
			return false
		}
		if f != wildcardSingle && f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}
