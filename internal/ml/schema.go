package ml

// schemaKind is the subset of OpenAPI types the response schemas use.
type schemaKind int

const (
	kindString schemaKind = iota
	kindNumber
	kindArray
	kindObject
)

// schemaNode describes an expected JSON response once; each backend renders
// it into its SDK's schema type, and decodeJSON checks replies against it.
type schemaNode struct {
	kind        schemaKind
	description string
	properties  map[string]*schemaNode
	required    []string
	items       *schemaNode
}

func str(description string) *schemaNode {
	return &schemaNode{kind: kindString, description: description}
}

func num(description string) *schemaNode {
	return &schemaNode{kind: kindNumber, description: description}
}

func array(description string, items *schemaNode) *schemaNode {
	return &schemaNode{kind: kindArray, description: description, items: items}
}

func object(description string, properties map[string]*schemaNode, required ...string) *schemaNode {
	return &schemaNode{kind: kindObject, description: description, properties: properties, required: required}
}

const portionHint = " CRITICAL: YOU MUST include specific, realistic portion sizes for every single ingredient, like "

var planSchema = object("", map[string]*schemaNode{
	"summary":          str("A brief, encouraging summary of the generated plan (2-3 sentences)."),
	"dailyCalorieGoal": num("An estimated daily calorie (kcal) goal for the user."),
	"dailyWaterGoal":   num("A personalized daily water intake goal in milliliters (ml) based on the user's weight and activity level."),
	"mealPlan": array("A 7-day meal plan.", object("", map[string]*schemaNode{
		"day": str("Day of the week (e.g., Monday)."),
		"meals": object("", map[string]*schemaNode{
			"breakfast": str("A detailed description of the breakfast meal." + portionHint + "'Oats (40g dry), 1/2 cup berries, 1 tbsp honey'."),
			"lunch":     str("A detailed description of the lunch meal." + portionHint + "'Grilled Chicken Breast (150g), Mixed Greens (2 cups), Cherry Tomatoes (1/2 cup), Vinaigrette Dressing (1 tbsp)'."),
			"dinner":    str("A detailed description of the dinner meal." + portionHint + "'Lean Beef Mince (120g), Brown Rice (1 cup cooked), Broccoli (1 cup)'."),
			"snacks":    str("A detailed description of the snacks for the day." + portionHint + "'1 Medium Apple, Small Handful of Almonds (30g)'."),
			"calories":  num("Total estimated calories (kcal) for the entire day's meals."),
		}, "breakfast", "lunch", "dinner", "snacks", "calories"),
	}, "day", "meals")),
	"exercisePlan": array("A 7-day exercise plan.", object("", map[string]*schemaNode{
		"day":         str("Day of the week (e.g., Monday)."),
		"workoutType": str("Type of workout (e.g., Upper Body Strength, HIIT Cardio, Swimming, Rest Day)."),
		"exercises": array("List of exercises for the day. Can be empty for rest days.", object("", map[string]*schemaNode{
			"name":        str("Name of the exercise."),
			"description": str("Description including sets/reps or duration (e.g., 3 sets of 10-12 reps, or 30 minutes of moderate pace, or 20 min HIIT)."),
		}, "name", "description")),
	}, "day", "workoutType", "exercises")),
	"stretchingPlan": object("A simple daily stretching routine.", map[string]*schemaNode{
		"title": str("Title for the stretching routine, e.g., 'Daily Flexibility Routine'."),
		"stretches": array("", object("", map[string]*schemaNode{
			"name":        str("Name of the stretch."),
			"description": str("How to perform the stretch, e.g., 'Hold for 30 seconds per side'."),
		}, "name", "description")),
	}, "title", "stretches"),
}, "summary", "dailyCalorieGoal", "dailyWaterGoal", "mealPlan", "exercisePlan", "stretchingPlan")

var recipeSchema = object("", map[string]*schemaNode{
	"recipeName":   str("The name of the recipe."),
	"description":  str("A short, enticing description of the dish, mentioning its South African connection if applicable."),
	"prepTime":     str("Estimated preparation time (e.g., '15 minutes')."),
	"cookTime":     str("Estimated cooking time (e.g., '30 minutes')."),
	"servings":     str("Number of servings the recipe makes."),
	"ingredients":  array("A list of ingredients with quantities.", str("")),
	"instructions": array("Step-by-step cooking instructions.", str("")),
	"notes":        str("Optional notes, tips, or variations for the recipe."),
}, "recipeName", "description", "prepTime", "cookTime", "servings", "ingredients", "instructions")

var mealAnalysisSchema = object("", map[string]*schemaNode{
	"description": str("A simple, one-line description of the meal suitable for a food log. e.g., 'Grilled chicken breast with broccoli and rice.'"),
	"calories":    num("An estimated calorie (kcal) count for the meal."),
}, "description", "calories")

var shoppingListSchema = object("", map[string]*schemaNode{
	"categories": array("An array of shopping categories.", object("", map[string]*schemaNode{
		"categoryName": str("The name of the category (e.g., 'Produce', 'Meat & Fish')."),
		"items":        array("A list of items in this category with their consolidated quantities (e.g., ['Apples (4x)', 'Chicken Breast (500g)']).", str("")),
	}, "categoryName", "items")),
}, "categories")
