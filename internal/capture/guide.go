package capture

// Orientation of the camera crop guide.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// CropGuide is the cut-out drawn over the viewfinder, in percent of the viewport.
type CropGuide struct {
	Orientation Orientation `json:"orientation"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
}

// Guide picks the crop guide for the current viewport.
func Guide(viewportW, viewportH int) CropGuide {
	if viewportW > viewportH {
		return CropGuide{Orientation: Landscape, X: 8, Y: 18, Width: 84, Height: 60}
	}
	return CropGuide{Orientation: Portrait, X: 17.5, Y: 4, Width: 65, Height: 92}
}
