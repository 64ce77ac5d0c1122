package service

// Disclaimer 是合规声明。
type Disclaimer struct {
	Medical string `json:"medical"`
	Danger  string `json:"danger"`
	Advice  string `json:"advice"`
}

var disclaimer = Disclaimer{
	Medical: "This app does not diagnose or treat medical conditions.",
	Danger:  "Contact emergency services if you are in danger.",
	Advice:  "Moodica offers emotional wellness support, not medical advice.",
}

// Compliance 返回静态的合规声明，不访问存储。
func Compliance() Disclaimer {
	return disclaimer
}
