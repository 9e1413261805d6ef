package models

import "unicode"

// Language is the reply language of a conversation turn
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// ParseLanguage maps a classifier language tag to a Language, defaulting to English
func ParseLanguage(s string) Language {
	if s == string(LanguageChinese) {
		return LanguageChinese
	}
	return LanguageEnglish
}

// DetectLanguage returns Chinese when the text contains any Han character
func DetectLanguage(text string) Language {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return LanguageChinese
		}
	}
	return LanguageEnglish
}

// CustomerContext identifies the customer a group chat belongs to
type CustomerContext struct {
	CustomerName string `json:"customer_name"` // Debtor name as written in the ledger
	CustomerCode string `json:"customer_code"` // Debtor code, e.g. 300-C014
	GroupName    string `json:"group_name"`    // Chat group the mapping came from (optional)
}

// IsZero reports whether no customer is attached
func (c *CustomerContext) IsZero() bool {
	return c == nil || (c.CustomerName == "" && c.CustomerCode == "")
}

// ChatMessage is one turn of a stored conversation
type ChatMessage struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // Message text
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
