package dataset

// Category is the task category string carried by every dataset record.
type Category string

const (
	Reconstruction  Category = "Fine-Grained_Image_Reconstruction"
	Editing         Category = "Text-Image_Editing"
	TextToImage     Category = "Text-Image_Generation"
	ImageToVideo    Category = "Conditional_Image_to_Video_Generation"
	TextToVideo     Category = "Text-to-Video_Generation"
	VideoPrediction Category = "Video prediction"
	ExplainEdit     Category = "Image_Explaining_and_Editing"
	SpatialPlanning Category = "Visual_Spatial_Planning"
)

// ImageCategories are scored by the image stage, in report order.
var ImageCategories = []Category{Reconstruction, Editing, TextToImage}

// VideoCategories are scored by the video stages, in report order.
var VideoCategories = []Category{ImageToVideo, TextToVideo, VideoPrediction}

// AllCategories lists every category the harness knows about.
var AllCategories = []Category{
	Reconstruction, Editing, TextToImage,
	ImageToVideo, TextToVideo, VideoPrediction,
	ExplainEdit, SpatialPlanning,
}

func (c Category) IsImage() bool {
	for _, ic := range ImageCategories {
		if c == ic {
			return true
		}
	}
	return false
}

func (c Category) IsVideo() bool {
	for _, vc := range VideoCategories {
		if c == vc {
			return true
		}
	}
	return false
}

// Known reports whether c is one of AllCategories.
func (c Category) Known() bool {
	for _, k := range AllCategories {
		if c == k {
			return true
		}
	}
	return false
}

// VideoTaskName maps a video category to the task key used in reports.
// It returns "" for non-video categories.
func VideoTaskName(c Category) string {
	switch c {
	case ImageToVideo:
		return "image_to_video"
	case TextToVideo:
		return "text_to_video"
	case VideoPrediction:
		return "video_prediction"
	default:
		return ""
	}
}
