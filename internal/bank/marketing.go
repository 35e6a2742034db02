package bank

import "marketing-quiz-service/internal/domain"

// MarketingQuizID identifies the built-in bank.
const MarketingQuizID = "psychology-of-marketing"

// Marketing returns the built-in "Psychology of Marketing" question bank.
// Each call returns a fresh copy.
func Marketing() domain.QuestionBank {
	return domain.QuestionBank{
		ID:    MarketingQuizID,
		Title: "The Psychology of Marketing Quiz",
		Questions: []domain.Question{
			{
				ID:      1,
				Text:    "What is a need?",
				Options: []string{"A luxury choice", "A basic requirement for survival", "A trend", "A hobby"},
				Answer:  "A basic requirement for survival",
			},
			{
				ID:      2,
				Text:    "What shapes a want?",
				Options: []string{"Weather", "Government", "Culture and personality", "Luck"},
				Answer:  "Culture and personality",
			},
			{
				ID:      3,
				Text:    "What is a desire?",
				Options: []string{"A discounted product", "A random purchase", "A specific want backed by emotion and money", "A free sample"},
				Answer:  "A specific want backed by emotion and money",
			},
			{
				ID:      4,
				Text:    "What comes first in the hierarchy?",
				Options: []string{"Want", "Desire", "Need", "Brand"},
				Answer:  "Need",
			},
			{
				ID:      5,
				Text:    "Marketers can create needs.",
				Options: []string{"True", "False", "Sometimes", "Only online"},
				Answer:  "False",
			},
			{
				ID:      6,
				Text:    "Which is a physical need?",
				Options: []string{"Fame", "Belonging", "Food", "Power"},
				Answer:  "Food",
			},
			{
				ID:      7,
				Text:    "Which is a social need?",
				Options: []string{"Safety", "Knowledge", "Belonging", "Profit"},
				Answer:  "Belonging",
			},
			{
				ID:      8,
				Text:    "Needs create what?",
				Options: []string{"Discounts", "Market categories", "Logos", "Trends"},
				Answer:  "Market categories",
			},
			{
				ID:      9,
				Text:    "What usually triggers action?",
				Options: []string{"Comfort", "Advertisement", "Discomfort", "Fame"},
				Answer:  "Discomfort",
			},
			{
				ID:      10,
				Text:    "A solution must be all except:",
				Options: []string{"Accessible", "Affordable", "Functional", "Trendy"},
				Answer:  "Trendy",
			},
			{
				ID:      11,
				Text:    "In the bunker case, the company is selling:",
				Options: []string{"Cement", "Furniture", "Survival assurance", "Land"},
				Answer:  "Survival assurance",
			},
			{
				ID:      12,
				Text:    "The want stage is called:",
				Options: []string{"Profit zone", "Competition zone", "Luxury zone", "Discount zone"},
				Answer:  "Competition zone",
			},
			{
				ID:      13,
				Text:    "Need + Culture equals:",
				Options: []string{"Brand", "Desire", "Want", "Discount"},
				Answer:  "Want",
			},
			{
				ID:      14,
				Text:    "A student prefers a KTM because of:",
				Options: []string{"Safety and space", "Low fuel cost", "Sporty image and speed", "Family comfort"},
				Answer:  "Sporty image and speed",
			},
			{
				ID:      15,
				Text:    "A family man prefers an SUV for:",
				Options: []string{"Speed", "Racing", "Safety and comfort", "Style only"},
				Answer:  "Safety and comfort",
			},
			{
				ID:      16,
				Text:    "In the RGB case, the basic laptop solves:",
				Options: []string{"Identity", "Gaming status", "Assignments", "Fashion"},
				Answer:  "Assignments",
			},
			{
				ID:      17,
				Text:    "The gaming rig fits:",
				Options: []string{"Budget needs", "Identity and lifestyle", "Office work", "Basic survival"},
				Answer:  "Identity and lifestyle",
			},
			{
				ID:      18,
				Text:    "Moving from “I like this” to “I am this” shows:",
				Options: []string{"Need", "Discount", "Desire", "Supply"},
				Answer:  "Desire",
			},
			{
				ID:      19,
				Text:    "Which is a driver of desire?",
				Options: []string{"Scarcity", "Ego", "Status", "All of the above"},
				Answer:  "All of the above",
			},
			{
				ID:      20,
				Text:    "A desire product usually has:",
				Options: []string{"Low price", "No branding", "Premium pricing", "Free delivery only"},
				Answer:  "Premium pricing",
			},
			{
				ID:      21,
				Text:    "Scarcity increases:",
				Options: []string{"Logic", "Panic buying", "Production cost", "Transport"},
				Answer:  "Panic buying",
			},
			{
				ID:      22,
				Text:    "Loyalty in desire products creates:",
				Options: []string{"Random buyers", "One time users", "Fan like customers", "Cheaper goods"},
				Answer:  "Fan like customers",
			},
			{
				ID:      23,
				Text:    "Needs help you:",
				Options: []string{"Become a legend", "Enter the market", "Beat competitors", "Gain status"},
				Answer:  "Enter the market",
			},
			{
				ID:      24,
				Text:    "Wants help you:",
				Options: []string{"Beat competitors", "Survive", "Avoid branding", "Reduce cost only"},
				Answer:  "Beat competitors",
			},
			{
				ID:      25,
				Text:    "Desires help you:",
				Options: []string{"Lower price", "Create emotional connection and status", "Remove competition", "Stop marketing"},
				Answer:  "Create emotional connection and status",
			},
		},
	}
}
