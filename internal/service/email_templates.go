package service

import "fmt"

func paymentDueEmailTemplate(name, goalName, recommended, dueDate, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Payment due for %s", goalName)
	body := fmt.Sprintf(`Hi %s,

Your %s goal has a contribution due on %s.

Recommended amount: €%s

Record it, or skip this period: %s/app/goals

Best,
The %s Team`, name, goalName, dueDate, recommended, appURL, appName)

	return subject, body
}

func milestoneEmailTemplate(name, goalName string, threshold int, appName string) (string, string) {
	subject := fmt.Sprintf("You've reached %d%% of %s", threshold, goalName)
	body := fmt.Sprintf(`Hi %s,

Congratulations! You've reached %d%% of your %s savings goal. Keep up the great work!

Best,
The %s Team`, name, threshold, goalName, appName)

	return subject, body
}

func goalCompletedEmailTemplate(name, goalName, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Goal completed: %s", goalName)
	body := fmt.Sprintf(`Hi %s,

Congratulations! You've completed your %s savings goal.

Time to set the next one? %s/app/goals

Best,
The %s Team`, name, goalName, appURL, appName)

	return subject, body
}
