package ml

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/franckalain/wellnesscraft/internal/models"
)

const mealPhotoPrompt = `Analyze the food in this image. Provide a simple, one-line description suitable for a food log (e.g., "Two fried eggs with toast and avocado"). Then, provide an estimated calorie count for the entire meal. Your response must be a JSON object matching the schema.`

// formatWeeklySchedule renders one "- Day: activity (duration)" line per
// weekday.
func formatWeeklySchedule(schedule models.WeeklySchedule) string {
	title := cases.Title(language.English)
	lines := make([]string, 0, 7)
	for _, d := range schedule.Days() {
		lines = append(lines, fmt.Sprintf("- %s: %s (%s)", title.String(d.Day), d.Activity, d.Duration))
	}
	return strings.Join(lines, "\n")
}

func goalLabel(goal string) string {
	switch goal {
	case "lose":
		return "Lose Weight"
	case "gain":
		return "Build Muscle"
	default:
		return "Maintain Weight"
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func planPrompt(d models.UserDetails) string {
	return fmt.Sprintf(`
Act as a highly qualified team of wellness experts. You are a certified personal trainer and a registered dietitian specializing in healthy, modern South African cuisine, with expertise in creating plans for individuals with common health conditions.
Based on the following user details, create a comprehensive, balanced, safe, and motivating 7-day wellness plan.
**User Details:**
- Age: %s, Gender: %s, Weight: %s kg, Height: %s cm
- Fitness Goal: %s
- Activity Level: %s
- **Health Conditions**: %s
- Meal Plan Budget: %s
- Dietary Needs/Restrictions: %s
- **Foods to Strictly Exclude**: %s
- Available Equipment: %s
**User's Desired Weekly Schedule:**
%s
**INSTRUCTIONS (Strictly Follow):**
1. **Prioritize Health & Safety (CRITICAL):**
   - **Carefully consider the user's "Health Conditions". The entire plan MUST be safe and appropriate.**
   - If high blood pressure is mentioned, recommend lower-sodium meals and moderate-intensity, consistent exercise. Avoid exercises involving holding breath under strain (Valsalva maneuver) or sudden, intense bursts of effort.
   - If an autoimmune condition (e.g., arthritis) is mentioned, suggest anti-inflammatory foods (like omega-3 rich fish, berries, leafy greens) and prioritize low-impact exercises (e.g., swimming, cycling, modified strength training). Avoid high-impact activities.
   - For any specified condition, research and apply standard, safe recommendations. Safety is the top priority.
2. **Exercise Plan (CRITICAL):**
   - **Adhere to the "Health & Safety" guidelines above.** Modify exercises as needed.
   - **Strictly adhere to the user's "Desired Weekly Schedule".** The 'day', 'workoutType', and duration MUST match the user's request.
   - For 'Upper Body Strength' days, create a workout with 4-6 exercises targeting Chest, Back, Shoulders, Biceps, and Triceps. Specify 3-4 sets per exercise with varied reps (e.g., 6-8 for compound, 10-12 for isolation).
   - For 'Lower Body Strength' days, create a balanced workout with 4-6 exercises for quads, hamstrings, glutes, and calves.
   - For 'Full Body Strength' days, include 1-2 exercises for each major muscle group.
   - For 'HIIT' or 'Cardio' days, provide a specific routine (e.g., "30s on/30s off with burpees, high knees" or "Steady-state running") that fits the specified duration, ensuring it's safe for the user's conditions.
   - For 'Rest' days, the exercises array in the JSON must be empty.
3. **Meal Plan (CRITICAL):**
   - **Adhere to the "Health & Safety" guidelines.** Modify ingredients for conditions (e.g., low sodium, anti-inflammatory).
   - For every meal (breakfast, lunch, dinner, snacks), it is absolutely CRITICAL that you provide specific portion sizes for EACH component of the meal. Do not just list foods. For example, instead of 'Chicken salad', write 'Grilled chicken breast (150g) with mixed greens (2 cups), cherry tomatoes (1/2 cup), and vinaigrette dressing (1 tbsp)'.
   - **Strictly avoid ALL items listed in the "Foods to Strictly Exclude" section.**
   - Incorporate healthy South African dishes where appropriate, if they align with health and exclusion constraints.
   - Include 2 healthy snack options per day.
   - If the 'Meal Plan Budget' is 'budget-friendly', prioritize cost-effective ingredients.
4. **Water Intake Goal:**
   - Calculate a personalized daily water goal in milliliters (ml). A general rule is 30-35ml of water per kg of body weight. Increase this for higher activity levels. Add this to the 'dailyWaterGoal' field.
5. **Summary & Calories:**
   - Write a brief, encouraging summary (2-3 sentences) that acknowledges the user's conditions if specified.
   - Calculate and provide a single, estimated daily calorie (kcal) goal.
6. **Stretching Plan:**
   - Provide a simple daily stretching routine with 3-5 stretches relevant to the exercise plan.
7. **Final Format:**
   - Ensure the entire response is a single, valid JSON object that strictly adheres to the provided schema.
`,
		d.Age, d.Gender, d.Weight, d.Height,
		goalLabel(d.Goal),
		d.ActivityLevel,
		orDefault(d.HealthConditions, "None specified"),
		d.Budget,
		orDefault(d.DietaryPreferences, "None"),
		orDefault(d.FoodsToExclude, "None"),
		orDefault(d.AvailableEquipment, "Standard gym equipment assumed. If none, specify bodyweight exercises."),
		formatWeeklySchedule(d.WeeklySchedule),
	)
}

func recipePrompt(p models.RecipePreferences) string {
	return fmt.Sprintf(`
Generate a simple, healthy, and delicious recipe with a South African flair based on these user preferences.
The output must be a valid JSON object matching the provided schema.

- Meal Type: %s
- Ingredients on Hand: %s
- Dietary Needs: %s
`, p.MealType, p.Ingredients, orDefault(p.DietaryNeeds, "None"))
}

func shoppingListPrompt(mealPlan []models.DailyMealPlan) (string, error) {
	data, err := json.MarshalIndent(mealPlan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode meal plan: %w", err)
	}
	return fmt.Sprintf(`
Based on this 7-day meal plan, generate a consolidated shopping list.
- Consolidate quantities (e.g., if Monday needs 1 apple and Wednesday needs 1 apple, list 'Apples (2x)').
- Organize the items into logical categories (Produce, Meat & Fish, Dairy & Eggs, Pantry, Spices & Oils, Other).
- Ignore common pantry staples like salt, pepper, and water unless specified in large amounts.
- The output must be a valid JSON object matching the provided schema.

Meal Plan:
%s
`, data), nil
}

// coachInstruction is the system instruction for coach conversations. It
// embeds the user's intake details.
func coachInstruction(d models.UserDetails) (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode user details: %w", err)
	}
	return fmt.Sprintf(`You are a friendly and encouraging AI Wellness Coach. Your knowledge base is the user's profile and their generated wellness plan.
- User Details: %s
- Answer questions based on their plan, suggest healthy alternatives, and provide motivation.
- Do not give medical advice. If asked about a medical condition, gently guide them to consult a doctor.
- Keep responses concise and easy to understand.`, data), nil
}
