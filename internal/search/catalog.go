package search

// Exercise is one catalog entry.
type Exercise struct {
	ID          string
	Topic       string
	Title       string
	Description string
	SourceLink  string
}

// document is the text embedded for an exercise.
func (e Exercise) document() string {
	return e.Title + ". " + e.Description + " Topic: " + e.Topic + "."
}

// DefaultCatalog returns the built-in exercises, grouped by the weakness they
// address.
func DefaultCatalog() []Exercise {
	return []Exercise{
		{
			ID:          "fillers-pause",
			Topic:       "filler words",
			Title:       "Pause Instead of Filling",
			Description: "Answer practice questions and replace every um or uh with a silent one-second pause to reduce filler words.",
			SourceLink:  "https://www.toastmasters.org/resources/public-speaking-tips",
		},
		{
			ID:          "fillers-recording",
			Topic:       "filler words",
			Title:       "Filler Word Awareness Recording",
			Description: "Record a two-minute interview answer, count your filler words on playback, and repeat until the count drops.",
			SourceLink:  "https://hbr.org/2018/08/how-to-stop-saying-um-ah-and-you-know",
		},
		{
			ID:          "fillers-tally",
			Topic:       "filler words",
			Title:       "Filler Tally With a Partner",
			Description: "Have a partner tap the table each time you use a filler word while you answer interview exercises.",
			SourceLink:  "https://www.themuse.com/advice/how-to-stop-saying-um",
		},
		{
			ID:          "eye-lens",
			Topic:       "eye contact",
			Title:       "Look at the Lens",
			Description: "Place a sticker beside your webcam and practice holding eye contact with the camera lens during video interviews.",
			SourceLink:  "https://www.indeed.com/career-advice/interviewing/video-interview-tips",
		},
		{
			ID:          "eye-triangle",
			Topic:       "eye contact",
			Title:       "Eye Contact Sentence Drill",
			Description: "Keep eye contact for one full sentence before glancing away. Techniques to improve eye contact in video interviews.",
			SourceLink:  "https://www.verywellmind.com/how-to-maintain-eye-contact-3024392",
		},
		{
			ID:          "eye-setup",
			Topic:       "eye contact",
			Title:       "Camera Height Setup",
			Description: "Raise the camera to eye level so natural eye contact reads correctly on video interviews.",
			SourceLink:  "https://www.linkedin.com/business/talent/blog/talent-acquisition/video-interview-tips",
		},
		{
			ID:          "pace-metronome",
			Topic:       "speaking rate",
			Title:       "Metronome Pacing",
			Description: "Read a passage aloud against a metronome to control speaking rate between 120 and 160 words per minute in presentations.",
			SourceLink:  "https://www.speakingaboutpresenting.com/delivery/speaking-rate/",
		},
		{
			ID:          "pace-timed",
			Topic:       "speaking rate",
			Title:       "Timed One-Minute Answers",
			Description: "Deliver a one-minute answer, check the word count, and adjust your speaking rate until it lands in the target range.",
			SourceLink:  "https://virtualspeech.com/blog/average-speaking-rate-words-per-minute",
		},
		{
			ID:          "pace-pauses",
			Topic:       "speaking rate",
			Title:       "Purposeful Pauses",
			Description: "Mark pause points in a script and practice exercises that control speaking rate in presentations.",
			SourceLink:  "https://www.ted.com/playlists/574/how_to_make_a_great_presentation",
		},
		{
			ID:          "energy-projection",
			Topic:       "vocal energy",
			Title:       "Voice Projection Ladder",
			Description: "Repeat one sentence at rising volume levels to build vocal energy and projection for public speaking.",
			SourceLink:  "https://www.voiceandspeech.com/projection-exercises",
		},
		{
			ID:          "energy-breathing",
			Topic:       "vocal energy",
			Title:       "Diaphragmatic Breathing",
			Description: "Breathe from the diaphragm before answering to support vocal energy exercises in public speaking.",
			SourceLink:  "https://www.healthline.com/health/diaphragmatic-breathing",
		},
		{
			ID:          "energy-emphasis",
			Topic:       "vocal energy",
			Title:       "Word Emphasis Practice",
			Description: "Stress one key word per sentence to add vocal energy and variety when speaking.",
			SourceLink:  "https://www.skillsyouneed.com/presentation-skills/voice.html",
		},
		{
			ID:          "confidence-reframe",
			Topic:       "confident language",
			Title:       "Remove Hedging Phrases",
			Description: "Rewrite interview answers to replace maybe, I think and I guess with confident language and direct claims.",
			SourceLink:  "https://www.forbes.com/sites/womensmedia/2019/05/28/stop-hedging-your-language",
		},
		{
			ID:          "confidence-achievements",
			Topic:       "confident language",
			Title:       "Achievement Statements",
			Description: "Build confident language for interview answers by stating what you led, built and delivered with numbers.",
			SourceLink:  "https://www.themuse.com/advice/how-to-talk-about-your-accomplishments",
		},
		{
			ID:          "confidence-power-pose",
			Topic:       "confident language",
			Title:       "Pre-Interview Warmup",
			Description: "Spend two minutes rehearsing your opening answer out loud to build confident delivery before the interview.",
			SourceLink:  "https://www.psychologytoday.com/us/basics/confidence",
		},
		{
			ID:          "structure-star",
			Topic:       "answer structure",
			Title:       "STAR Method Drill",
			Description: "Structure concise interview answers with the STAR method: situation, task, action, result.",
			SourceLink:  "https://www.themuse.com/advice/star-interview-method",
		},
		{
			ID:          "structure-trim",
			Topic:       "answer structure",
			Title:       "Sentence Trimming",
			Description: "Split long run-on sentences and merge fragments so each sentence carries one idea in concise interview answers.",
			SourceLink:  "https://www.grammarly.com/blog/run-on-sentences/",
		},
		{
			ID:          "structure-outline",
			Topic:       "answer structure",
			Title:       "Three-Point Outline",
			Description: "Outline answers as three points before speaking to structure concise interview answers.",
			SourceLink:  "https://www.mindtools.com/pages/article/newCS_97.htm",
		},
		{
			ID:          "general-mock",
			Topic:       "communication practice",
			Title:       "Weekly Mock Interview",
			Description: "Schedule a recorded mock interview each week as general interview communication practice exercises.",
			SourceLink:  "https://www.pramp.com",
		},
		{
			ID:          "general-feedback",
			Topic:       "communication practice",
			Title:       "Peer Feedback Round",
			Description: "Trade recorded answers with a peer and give each other structured feedback on interview communication.",
			SourceLink:  "https://www.biginterview.com",
		},
		{
			ID:          "general-question-bank",
			Topic:       "communication practice",
			Title:       "Question Bank Rotation",
			Description: "Rotate through a bank of common interview questions to practice communication under varied prompts.",
			SourceLink:  "https://www.glassdoor.com/blog/common-interview-questions/",
		},
	}
}
