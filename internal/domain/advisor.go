package domain

import "time"

// ─── Corpus ─────────────────────────────────────────────────────────────────

// CorpusEntry is one immutable question/answer pair from the guidance table.
type CorpusEntry struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Match is the corpus entry chosen for a query and its cosine score.
type Match struct {
	Index    int     `json:"index"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

// ─── Chat ───────────────────────────────────────────────────────────────────

// FeedbackOptions are the reactions a user can leave on an answer.
var FeedbackOptions = []string{"😀", "😊", "😐", "😕", "😡"}

// ValidFeedback reports whether f is one of FeedbackOptions.
func ValidFeedback(f string) bool {
	for _, o := range FeedbackOptions {
		if o == f {
			return true
		}
	}
	return false
}

// ChatRecord is one question/answer exchange.
// Degraded is set when the rephrasing service failed and Bot holds the raw
// corpus answer.
type ChatRecord struct {
	ID              string    `json:"id" bson:"_id"`
	SessionID       string    `json:"session_id" bson:"sessionId"`
	User            string    `json:"user" bson:"user"`
	Bot             string    `json:"bot" bson:"bot"`
	MatchedQuestion string    `json:"matched_question" bson:"matchedQuestion"`
	Feedback        string    `json:"feedback,omitempty" bson:"feedback"`
	Degraded        bool      `json:"degraded" bson:"degraded"`
	CreatedAt       time.Time `json:"created_at" bson:"createdAt"`
}

// ─── Resume ─────────────────────────────────────────────────────────────────

// ResumeReport is the outcome of a resume analysis.
type ResumeReport struct {
	Filename   string   `json:"filename"`
	Text       string   `json:"-"`
	Kind       string   `json:"kind"`
	Analysis   string   `json:"analysis"`
	Roles      []string `json:"suggested_roles,omitempty"`
	ArchiveKey string   `json:"archive_key,omitempty"`
}

// ─── Career resources ───────────────────────────────────────────────────────

// Resource is a static career tip sheet.
type Resource struct {
	Topic string   `json:"topic"`
	Icon  string   `json:"icon"`
	Tips  []string `json:"tips"`
}

// CareerResources returns the built-in tip sheets.
func CareerResources() []Resource {
	return []Resource{
		{
			Topic: "Resume Tips", Icon: "📄",
			Tips: []string{
				"Keep it concise and relevant (1-2 pages).",
				"Use bullet points to list achievements.",
				"Tailor your resume for the job role.",
				"Highlight technical skills and certifications.",
				"Include links to GitHub, LinkedIn, or a portfolio.",
			},
		},
		{
			Topic: "Interview Preparation", Icon: "🎤",
			Tips: []string{
				"Research the company and role.",
				"Practice common interview questions.",
				"Be ready to explain your projects.",
				"Ask questions to show genuine interest.",
				"Dress professionally and be punctual.",
			},
		},
		{
			Topic: "Soft Skills", Icon: "🧠",
			Tips: []string{
				"Communication & teamwork",
				"Critical thinking & problem-solving",
				"Time management",
				"Adaptability & continuous learning",
				"Empathy & emotional intelligence",
			},
		},
		{
			Topic: "Job Search Strategies", Icon: "💼",
			Tips: []string{
				"Define your career goals clearly.",
				"Use platforms like LinkedIn, Naukri, and Internshala.",
				"Customize your resume for each application.",
				"Network with industry professionals.",
				"Follow up after applications and interviews.",
			},
		},
	}
}
