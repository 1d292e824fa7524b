package entities

// PageInfo holds basic facts about the current page
type PageInfo struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	BodyTextLength int    `json:"body_text_length"`
}

// Viewport is a browser window size
type Viewport struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var (
	ViewportDesktop = Viewport{Name: "Desktop", Width: 1920, Height: 1080}
	ViewportTablet  = Viewport{Name: "Tablet", Width: 768, Height: 1024}
	ViewportMobile  = Viewport{Name: "Mobile", Width: 375, Height: 667}
)
