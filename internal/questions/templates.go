package questions

import (
	"fmt"
	"math"

	"intervai/internal/models"
)

// CategorySplit divides a question count across the four categories:
// 30% behavioral, 30% technical, 20% situational, remainder resume-based.
func CategorySplit(count int) (behavioral, technical, situational, resumeBased int) {
	behavioral = int(math.Round(float64(count) * 0.3))
	technical = int(math.Round(float64(count) * 0.3))
	situational = int(math.Ceil(float64(count) * 0.2))
	resumeBased = count - behavioral - technical - situational
	return
}

type ruleTemplate struct {
	question        func(p templateParams) string
	suggestedAnswer func(p templateParams) string
	tips            []string
	difficulty      string
}

type templateParams struct {
	position    string
	company     string
	jobTitle    string
	jobCompany  string
	skill       string
	degree      string
	field       string
	institution string
}

var behavioralTemplates = []ruleTemplate{
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("Tell me about a time during your work as %s at %s when you faced a significant challenge. How did you handle it?", p.position, p.company)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Use the STAR method: describe the Situation and your Task, walk through the Actions you took, and close with the measurable Result and what you learned."
		},
		tips: []string{
			"Pick a challenge with a concrete, measurable outcome",
			"Spend most of the answer on your own actions, not the team's",
			"Close with what you would do differently next time",
		},
		difficulty: models.DifficultyMedium,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("Describe a disagreement you had with a colleague while working as %s. How was it resolved?", p.position)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Frame the disagreement around the work, not the person: explain both positions fairly, how you sought common ground, and the outcome for the project."
		},
		tips: []string{
			"Stay neutral when describing the other side",
			"Show that you listened before arguing",
			"End on the working relationship afterwards",
			"Avoid conflicts that ended without resolution",
		},
		difficulty: models.DifficultyMedium,
	},
	{
		question: func(p templateParams) string {
			return "Tell me about a time you had to deliver under a tight deadline. What did you prioritize and why?"
		},
		suggestedAnswer: func(p templateParams) string {
			return "Structure the answer with STAR: the deadline pressure, how you triaged scope, the trade-offs you communicated, and the delivery result."
		},
		tips: []string{
			"Name the prioritization criteria explicitly",
			"Mention how you communicated risk to stakeholders",
			"Quantify what was delivered on time",
		},
		difficulty: models.DifficultyEasy,
	},
	{
		question: func(p templateParams) string {
			return "Describe a failure you experienced professionally. What did you take away from it?"
		},
		suggestedAnswer: func(p templateParams) string {
			return "Own the failure plainly, explain root causes without blaming others, and spend the second half on the concrete changes you made afterwards."
		},
		tips: []string{
			"Choose a real failure, not a disguised success",
			"Show the lesson being applied later",
			"Keep the tone reflective, not defensive",
		},
		difficulty: models.DifficultyHard,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("What accomplishment from your time at %s are you most proud of, and why?", p.company)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Pick an accomplishment relevant to the target role, set up the context briefly, and anchor it with a measurable impact."
		},
		tips: []string{
			"Tie the accomplishment to skills the new role needs",
			"Use a number or external recognition as evidence",
			"Credit collaborators without diluting your role",
		},
		difficulty: models.DifficultyEasy,
	},
}

var technicalTemplates = []ruleTemplate{
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("The role calls for strong %s skills. Walk me through the most complex problem you have solved with %s.", p.skill, p.skill)
		},
		suggestedAnswer: func(p templateParams) string {
			return fmt.Sprintf("Describe the problem's constraints, the alternatives you considered, why the %s-based approach won, and how you validated the solution.", p.skill)
		},
		tips: []string{
			"Start from the problem, not the technology",
			"Mention at least one alternative you rejected",
			"Explain how you measured success",
		},
		difficulty: models.DifficultyHard,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("How do you keep your %s knowledge current, and what recent development in that area excites you?", p.skill)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Name specific sources and habits, then go deep on one recent development and its practical implications for the kind of work this role involves."
		},
		tips: []string{
			"Be specific about sources rather than saying 'blogs'",
			"Pick a development you can discuss in depth",
			"Connect it back to the role's needs",
		},
		difficulty: models.DifficultyEasy,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("How would you explain %s to a non-technical stakeholder who needs to make a decision that depends on it?", p.skill)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Lead with the decision the stakeholder faces, use one concrete analogy, and translate technical trade-offs into cost, time and risk."
		},
		tips: []string{
			"Avoid jargon entirely in your explanation",
			"Anchor the explanation in the stakeholder's decision",
			"Check for understanding at the end",
		},
		difficulty: models.DifficultyMedium,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("Describe how you would review a teammate's work involving %s. What do you look for first?", p.skill)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Describe a layered review: correctness and edge cases first, then maintainability and clarity, then style; explain how you phrase feedback constructively."
		},
		tips: []string{
			"Order your review criteria by importance",
			"Give an example of feedback you have delivered",
			"Mention how you handle disagreement about feedback",
		},
		difficulty: models.DifficultyMedium,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("What are the most common mistakes you see people make with %s, and how do you avoid them?", p.skill)
		},
		suggestedAnswer: func(p templateParams) string {
			return "List two or three mistakes from real experience, explain their cost, and describe the habits or guardrails you use to prevent them."
		},
		tips: []string{
			"Draw on mistakes you have actually seen or made",
			"Explain the cost of each mistake",
			"Finish with preventive habits, not blame",
		},
		difficulty: models.DifficultyMedium,
	},
}

var situationalTemplates = []ruleTemplate{
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("Imagine your first month as %s at %s. How would you approach getting up to speed?", p.jobTitle, p.jobCompany)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Lay out a 30-day plan: understand the product and customers first, build relationships with key people, then pick an early contribution that builds trust."
		},
		tips: []string{
			"Show you have researched the company",
			"Balance learning with early contribution",
			"Name the people you would seek out first",
		},
		difficulty: models.DifficultyEasy,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("Suppose you are %s here and a stakeholder asks for something you believe is the wrong priority. What do you do?", p.jobTitle)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Seek to understand their constraint first, present data for your view, propose alternatives, and commit fully once a decision is made."
		},
		tips: []string{
			"Lead with curiosity, not pushback",
			"Use data rather than opinion",
			"Show you can disagree and commit",
		},
		difficulty: models.DifficultyMedium,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("If %s asked you to take over a struggling project mid-flight, what would your first week look like?", p.jobCompany)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Diagnose before acting: talk to the team and stakeholders, identify the single biggest blocker, stabilize communication, and reset expectations with a realistic plan."
		},
		tips: []string{
			"Resist proposing fixes before diagnosing",
			"Mention listening to the existing team",
			"Close with how you would rebuild stakeholder trust",
		},
		difficulty: models.DifficultyHard,
	},
}

var resumeBasedTemplates = []ruleTemplate{
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("I see you worked as %s at %s. What were your main responsibilities, and which would transfer to this role?", p.position, p.company)
		},
		suggestedAnswer: func(p templateParams) string {
			return fmt.Sprintf("Summarize the scope of the %s role briefly, then map two or three responsibilities directly onto this position's requirements.", p.position)
		},
		tips: []string{
			"Prioritize responsibilities relevant to the target role",
			"Use concrete scale: team size, users, budget",
			"Explain why the transition makes sense",
		},
		difficulty: models.DifficultyEasy,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("Your resume lists %s among your skills. Can you give me a concrete example of applying it end to end?", p.skill)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Pick one project, walk from the initial problem through your application of the skill to the outcome, and note what depth the example demonstrates."
		},
		tips: []string{
			"Choose your strongest, most recent example",
			"Show depth rather than breadth",
			"Quantify the outcome",
		},
		difficulty: models.DifficultyMedium,
	},
	{
		question: func(p templateParams) string {
			return fmt.Sprintf("You studied %s in %s at %s. How has that background shaped the way you work?", p.degree, p.field, p.institution)
		},
		suggestedAnswer: func(p templateParams) string {
			return "Connect one or two habits of thinking from your studies to concrete working practices, and note where practical experience has extended beyond them."
		},
		tips: []string{
			"Avoid reciting coursework",
			"Name a thinking habit the degree gave you",
			"Acknowledge what experience taught that study did not",
		},
		difficulty: models.DifficultyEasy,
	},
}

// RuleBased deterministically generates a full question set from templates,
// in category order. Templates cycle when a category needs more questions
// than the library holds.
func RuleBased(resume models.ResumeData, job models.JobData, count int) []models.InterviewQuestion {
	p := newTemplateParams(resume, job)
	behavioral, technical, situational, resumeBased := CategorySplit(count)

	// Technical questions target the job's listed skills; resume-based ones
	// target the candidate's own.
	jobSkills := job.RequiredSkills
	if len(jobSkills) == 0 {
		jobSkills = resume.Skills
	}
	resumeSkills := resume.Skills
	if len(resumeSkills) == 0 {
		resumeSkills = job.RequiredSkills
	}

	out := make([]models.InterviewQuestion, 0, count)
	out = append(out, renderCategory(behavioralTemplates, models.TypeBehavioral, behavioral, p, nil)...)
	out = append(out, renderCategory(technicalTemplates, models.TypeTechnical, technical, p, jobSkills)...)
	out = append(out, renderCategory(situationalTemplates, models.TypeSituational, situational, p, nil)...)
	out = append(out, renderCategory(resumeBasedTemplates, models.TypeResumeBased, resumeBased, p, resumeSkills)...)
	return out
}

func renderCategory(templates []ruleTemplate, questionType string, n int, p templateParams, skills []string) []models.InterviewQuestion {
	out := make([]models.InterviewQuestion, 0, n)
	for i := 0; i < n; i++ {
		tpl := templates[i%len(templates)]
		params := p
		if len(skills) > 0 {
			params.skill = skills[i%len(skills)]
		}
		out = append(out, models.InterviewQuestion{
			QuestionType:    questionType,
			Question:        tpl.question(params),
			SuggestedAnswer: tpl.suggestedAnswer(params),
			Tips:            append(models.StringList{}, tpl.tips...),
			Difficulty:      tpl.difficulty,
		})
	}
	return out
}

func newTemplateParams(resume models.ResumeData, job models.JobData) templateParams {
	p := templateParams{
		position:    "your most recent role",
		company:     "your previous company",
		jobTitle:    "this role",
		jobCompany:  "the company",
		skill:       "your core skill set",
		degree:      "your degree",
		field:       "your field",
		institution: "your institution",
	}
	if len(resume.Experience) > 0 {
		if resume.Experience[0].Position != "" {
			p.position = resume.Experience[0].Position
		}
		if resume.Experience[0].Company != "" {
			p.company = resume.Experience[0].Company
		}
	}
	if job.Title != "" {
		p.jobTitle = job.Title
	}
	if job.Company != "" {
		p.jobCompany = job.Company
	}
	if len(resume.Education) > 0 {
		edu := resume.Education[0]
		if edu.Degree != "" {
			p.degree = edu.Degree
		}
		if edu.Field != "" {
			p.field = edu.Field
		}
		if edu.Institution != "" {
			p.institution = edu.Institution
		}
	}
	return p
}

