package category

// Definition is a category name and description before it has been embedded.
type Definition struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Defaults returns the built-in taxonomy used when no categories file is
// configured.
func Defaults() []Definition {
	return []Definition{
		{Name: "technology", Description: "Technology, software, computers, programming, artificial intelligence, gadgets"},
		{Name: "business", Description: "Business, finance, economics, marketing, entrepreneurship, corporate"},
		{Name: "health", Description: "Health, medicine, fitness, wellness, healthcare, medical research"},
		{Name: "sports", Description: "Sports, athletics, games, competition, teams, fitness activities"},
		{Name: "entertainment", Description: "Movies, music, television, celebrities, arts, culture, gaming"},
		{Name: "politics", Description: "Politics, government, elections, policy, legislation, political news"},
		{Name: "science", Description: "Science, research, discoveries, experiments, academic studies, innovation"},
		{Name: "education", Description: "Education, learning, schools, universities, teaching, academic"},
		{Name: "travel", Description: "Travel, tourism, destinations, vacation, transportation, geography"},
		{Name: "food", Description: "Food, cooking, restaurants, recipes, nutrition, culinary arts"},
	}
}
