package macros

import (
	"strings"
	"sync"
)

// UnknownMacroPolicy controls what happens to [MACROS] the provider cannot
// resolve.
type UnknownMacroPolicy string

const (
	// UnknownMacroKeep leaves unresolved macros in place.
	UnknownMacroKeep UnknownMacroPolicy = "KEEP"
	// UnknownMacroRemove strips unresolved macros from the URL.
	UnknownMacroRemove UnknownMacroPolicy = "REMOVE"
)

type Replacer interface {
	// Replace the macros and returns replaced string
	// if any error the error will be returned
	Replace(url string, macroProvider *Provider) (string, error)
}

// NewReplacer will return instance of macro processor
func NewReplacer(policy UnknownMacroPolicy) Replacer {
	if policy == "" {
		policy = UnknownMacroKeep
	}
	return &stringBasedReplacer{
		policy:    policy,
		templates: make(map[string]urlMetaTemplate),
	}
}

type stringBasedReplacer struct {
	policy    UnknownMacroPolicy
	templates map[string]urlMetaTemplate
	sync.RWMutex
}

type urlMetaTemplate struct {
	startingIndices []int
	endingIndices   []int
}

func constructTemplate(url string) urlMetaTemplate {
	currentIndex := 0
	tmplt := urlMetaTemplate{
		startingIndices: []int{},
		endingIndices:   []int{},
	}
	for currentIndex < len(url) {
		startIndex := strings.Index(url[currentIndex:], "[")
		if startIndex == -1 {
			break
		}
		startIndex = startIndex + currentIndex
		endingIndex := strings.Index(url[startIndex+1:], "]")
		if endingIndex == -1 {
			break
		}
		endingIndex = endingIndex + startIndex + 1 // offset adjustment (delimiter inclusive)
		tmplt.startingIndices = append(tmplt.startingIndices, startIndex)
		tmplt.endingIndices = append(tmplt.endingIndices, endingIndex)
		currentIndex = endingIndex + 1
	}
	return tmplt
}

func (processor *stringBasedReplacer) getTemplate(url string) urlMetaTemplate {
	processor.RLock()
	tmplt, ok := processor.templates[url]
	processor.RUnlock()
	if ok {
		return tmplt
	}

	processor.Lock()
	defer processor.Unlock()
	tmplt = constructTemplate(url)
	processor.templates[url] = tmplt
	return tmplt
}

func (processor *stringBasedReplacer) Replace(url string, macroProvider *Provider) (string, error) {
	tmplt := processor.getTemplate(url)

	var result strings.Builder
	currentIndex := 0
	for i := range tmplt.startingIndices {
		start := tmplt.startingIndices[i]
		end := tmplt.endingIndices[i]
		result.WriteString(url[currentIndex:start])

		key := url[start+1 : end]
		value := macroProvider.GetMacro(key)
		switch {
		case value != "":
			result.WriteString(value)
		case processor.policy == UnknownMacroKeep:
			result.WriteString(url[start : end+1])
		}
		currentIndex = end + 1
	}
	result.WriteString(url[currentIndex:])
	return result.String(), nil
}
