package storage

// Result file layout of the Allure 2 results directory

type allureResult struct {
	UUID          string         `json:"uuid"`
	HistoryID     string         `json:"historyId"`
	Name          string         `json:"name"`
	FullName      string         `json:"fullName"`
	Description   string         `json:"description,omitempty"`
	Status        string         `json:"status"`
	StatusDetails *statusDetails `json:"statusDetails,omitempty"`
	Stage         string         `json:"stage"`
	Start         int64          `json:"start"`
	Stop          int64          `json:"stop"`
	Labels        []label        `json:"labels"`
	Parameters    []parameter    `json:"parameters"`
	Steps         []*allureStep  `json:"steps"`
	Attachments   []attachment   `json:"attachments"`
}

type allureStep struct {
	Name        string        `json:"name"`
	Status      string        `json:"status"`
	Stage       string        `json:"stage"`
	Start       int64         `json:"start"`
	Stop        int64         `json:"stop"`
	Steps       []*allureStep `json:"steps"`
	Attachments []attachment  `json:"attachments"`
}

type statusDetails struct {
	Message string `json:"message,omitempty"`
	Known   bool   `json:"known,omitempty"`
}

type label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type attachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}
