package schema

// ImagePrompt is the structured description used to prompt an image model.
type ImagePrompt struct {
	Meta         ImageMeta        `json:"meta"`
	Camera       ImageCamera      `json:"camera"`
	Subject      ImageSubject     `json:"subject"`
	Character    ImageCharacter   `json:"character"`
	Composition  ImageComposition `json:"composition"`
	Setting      ImageSetting     `json:"setting"`
	Lighting     ImageLighting    `json:"lighting"`
	Style        ImageStyle       `json:"style"`
	Rendering    ImageRendering   `json:"rendering"`
	ColorPalette ColorPalette     `json:"colorPalette"`
}

type ImageMeta struct {
	StyleName    string `json:"styleName" jsonschema_description:"Unique, descriptive name for this image style (e.g., 'Ethereal Forest Magic')"`
	AspectRatio  string `json:"aspectRatio" jsonschema_description:"Width to height ratio (e.g., '16:9', '1:1', '4:5')"`
	PromptPrefix string `json:"promptPrefix" jsonschema_description:"Optional text to prepend to the prompt, like a trigger word"`
}

type ImageCamera struct {
	Model       string `json:"model" jsonschema_description:"Camera, lens or artistic medium (e.g., 'DSLR', 'Watercolor on cold-press paper')"`
	FocalLength string `json:"focalLength" jsonschema_description:"Focal length or perspective (e.g., '85mm portrait', 'Isometric perspective')"`
	Angle       string `json:"angle" jsonschema_description:"Camera angle relative to the subject (e.g., 'eye-level', 'drone shot')"`
	Type        string `json:"type" jsonschema_description:"Genre of photography or art (e.g., 'macro photography', 'fantasy illustration')"`
}

type ImageSubject struct {
	Primary string `json:"primary" jsonschema_description:"Main focal point of the image"`
	Emotion string `json:"emotion" jsonschema_description:"Dominant emotion or mood of the subject"`
	Pose    string `json:"pose" jsonschema_description:"Posture, action or arrangement of the subject"`
	Gaze    string `json:"gaze" jsonschema_description:"Direction of the subject's gaze or compositional focus"`
}

type ImageCharacter struct {
	Appearance  string `json:"appearance" jsonschema_description:"Detailed physical description of a character or key object"`
	Wardrobe    string `json:"wardrobe" jsonschema_description:"Clothing, armor or covering on the subject"`
	Accessories string `json:"accessories" jsonschema_description:"Additional items worn by or associated with the subject"`
}

type ImageComposition struct {
	Theory          string `json:"theory" jsonschema_description:"Compositional rules applied (e.g., 'rule of thirds')"`
	VisualHierarchy string `json:"visualHierarchy" jsonschema_description:"Order in which the eye is drawn through the scene"`
}

type ImageSetting struct {
	Environment  string `json:"environment" jsonschema_description:"General environment or location"`
	Architecture string `json:"architecture" jsonschema_description:"Buildings, ruins or significant natural structures"`
	Furniture    string `json:"furniture" jsonschema_description:"Key props or furniture within the setting"`
}

type ImageLighting struct {
	Source    string `json:"source" jsonschema_description:"Primary light source"`
	Direction string `json:"direction" jsonschema_description:"Direction the light comes from"`
	Quality   string `json:"quality" jsonschema_description:"Quality of light and shadows"`
}

type ImageStyle struct {
	ArtDirection string `json:"artDirection" jsonschema_description:"Overarching artistic style or movement"`
	Mood         string `json:"mood" jsonschema_description:"Overall atmosphere of the image"`
}

type ImageRendering struct {
	Engine         string `json:"engine" jsonschema_description:"Rendering engine, technique or medium"`
	FidelitySpec   string `json:"fidelitySpec" jsonschema_description:"Texture and fidelity details (e.g., 'heavy film grain')"`
	PostProcessing string `json:"postProcessing" jsonschema_description:"Finishing effects (e.g., 'teal and orange grade')"`
}

type ColorPalette struct {
	PrimaryColors []PaletteColor `json:"primaryColors" jsonschema_description:"Most dominant colours of the image"`
	AccentColors  []PaletteColor `json:"accentColors" jsonschema_description:"Complementary or contrasting colours used for emphasis"`
}

type PaletteColor struct {
	Name       string `json:"name"`
	Hex        string `json:"hex"`
	Percentage string `json:"percentage"`
}
