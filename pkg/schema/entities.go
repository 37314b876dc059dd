package schema

// VideoScript is the structured document returned by the scene script generator.
type VideoScript struct {
	Characters []CharacterProfile `json:"characters" jsonschema_description:"Detailed, consistent profile of the main characters' core attributes"`
	Clips      []Clip             `json:"clips" jsonschema_description:"Array containing the definition of every individual video segment or shot"`
}

// CharacterProfile holds the static attributes of a recurring character.
type CharacterProfile struct {
	Name                string  `json:"name" jsonschema_description:"Primary character name (e.g., 'Nyx Cipher', 'Dr. Sarah Chen')"`
	Age                 int     `json:"age" jsonschema_description:"Apparent age of the character (e.g., 27, 350, 5)"`
	Height              string  `json:"height" jsonschema_description:"Character height, may include several units (e.g., '5'8\" / 173 cm')"`
	Build               string  `json:"build" jsonschema_description:"Body type and physique (e.g., 'lean, athletic, swimmer's shoulders')"`
	SkinTone            string  `json:"skin_tone" jsonschema_description:"Skin colour and texture (e.g., 'deep bronze with a light sun glow')"`
	Hair                string  `json:"hair" jsonschema_description:"Hair colour, length and style"`
	Eyes                string  `json:"eyes" jsonschema_description:"Eye shape and colour"`
	DistinguishingMarks string  `json:"distinguishing_marks" jsonschema_description:"Unique features such as tattoos, scars or piercings"`
	Demeanour           string  `json:"demeanour" jsonschema_description:"Typical personality, mood and facial expression"`
	DefaultOutfit       string  `json:"default_outfit" jsonschema_description:"Standard or primary outfit of the character"`
	MouthShapeIntensity float64 `json:"mouth_shape_intensity" jsonschema_description:"Lip-sync exaggeration (0=subtle, 1=exaggerated)"`
	EyeContactRatio     float64 `json:"eye_contact_ratio" jsonschema_description:"Share of time the character looks straight into the camera (0-1)"`
}

// Clip describes a single ~8 second video segment.
type Clip struct {
	ID             string         `json:"id" jsonschema_description:"Unique identifier for this clip (e.g., 'S1_SplashCash', 'Forest_Intro_001')"`
	Shot           Shot           `json:"shot"`
	Subject        Subject        `json:"subject"`
	Scene          Scene          `json:"scene"`
	VisualDetails  VisualDetails  `json:"visual_details"`
	Cinematography Cinematography `json:"cinematography"`
	AudioTrack     AudioTrack     `json:"audio_track"`
	Dialogue       Dialogue       `json:"dialogue"`
	Performance    Performance    `json:"performance"`
	DurationSec    int            `json:"duration_sec" jsonschema_description:"Exact clip duration in seconds (e.g., 8)"`
	AspectRatio    string         `json:"aspect_ratio" jsonschema_description:"Aspect ratio of this clip (e.g., '16:9', '9:16')"`
	NegativePrompt string         `json:"negative_prompt" jsonschema_description:"Elements to exclude from the clip (e.g., 'No other people, no music')"`
}

// Shot holds the technical camera details of a clip.
type Shot struct {
	Composition  string  `json:"composition" jsonschema_description:"Framing and lens (e.g., 'Medium close-up, 35mm lens, deep focus, smooth gimbal')"`
	CameraMotion string  `json:"camera_motion" jsonschema_description:"Camera movement during the shot (e.g., 'slow 2ft dolly-in', 'static tripod shot')"`
	FrameRate    string  `json:"frame_rate" jsonschema_description:"Frames per second (e.g., '24 fps', '60 fps for slow motion')"`
	FilmGrain    float64 `json:"film_grain" jsonschema_description:"Stylistic film grain (0=none, higher=more grain)"`
	Camera       string  `json:"camera" jsonschema_description:"Lens, shot type and equipment style (e.g., 'RED camera on a Steadicam rig')"`
}

// Subject describes the character's look in a specific clip.
type Subject struct {
	Description string `json:"description" jsonschema_description:"Full descriptive character prompt for this shot; must repeat the character's core visual attributes"`
	Wardrobe    string `json:"wardrobe" jsonschema_description:"Outfit worn in this clip, usually based on the character's default_outfit"`
}

// Scene describes where and when the clip takes place.
type Scene struct {
	Location    string `json:"location" jsonschema_description:"Physical place where the scene happens; identical wording when the place repeats"`
	TimeOfDay   string `json:"time_of_day" jsonschema_description:"Time of day (e.g., 'golden hour before sunset')"`
	Environment string `json:"environment" jsonschema_description:"Specific details about the surroundings"`
}

type VisualDetails struct {
	Action string `json:"action" jsonschema_description:"What the character physically does in the scene"`
	Props  string `json:"props" jsonschema_description:"Objects that appear or are interacted with"`
}

type Cinematography struct {
	Lighting   string `json:"lighting" jsonschema_description:"Lighting direction for this shot"`
	Tone       string `json:"tone" jsonschema_description:"Intended mood and feel of the clip"`
	ColorGrade string `json:"color_grade" jsonschema_description:"Colour grading and palette"`
}

type AudioTrack struct {
	Lyrics       string `json:"lyrics" jsonschema_description:"Lyrics or spoken text to be lip-synced or heard"`
	Emotion      string `json:"emotion" jsonschema_description:"Emotional tone of the vocal performance"`
	Flow         string `json:"flow" jsonschema_description:"Rhythm and cadence of the delivery"`
	Format       string `json:"format" jsonschema_description:"Desired audio format (e.g., 'wav', 'aac')"`
	SampleRateHz int    `json:"sample_rate_hz" jsonschema_description:"Sample rate in hertz (e.g., 48000)"`
	Channels     int    `json:"channels" jsonschema_description:"Number of audio channels (e.g., 2 for stereo)"`
	Style        string `json:"style" jsonschema_description:"Musical genre, tempo and elements of the track"`
}

type Dialogue struct {
	Character string `json:"character" jsonschema_description:"Character who speaks"`
	Line      string `json:"line" jsonschema_description:"Exact line of dialogue, formatted as [verb indicating tone]: \"[dialogue text]\""`
	Subtitles bool   `json:"subtitles" jsonschema_description:"Whether subtitles are shown for this line. Subtitles must always be disabled"`
}

type Performance struct {
	MouthShapeIntensity float64 `json:"mouth_shape_intensity" jsonschema_description:"Clip-specific lip-sync exaggeration override (0-1)"`
	EyeContactRatio     float64 `json:"eye_contact_ratio" jsonschema_description:"Clip-specific override of how often the character looks into the camera (0-1)"`
}

// ScenePrompt is the per-scene document handed to the image and video stages.
type ScenePrompt struct {
	Characters []CharacterProfile `json:"characters"`
	Clips      []Clip             `json:"clips"`
}
