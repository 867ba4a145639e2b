package notifications

import (
	"fmt"
	"html"
)

func WelcomeEmail(name string) (string, string) {
	return "Welcome to English Practice!",
		fmt.Sprintf("<h1>Welcome, %s!</h1><p>Thank you for registering. Start a daily talk, a debate or a story whenever you are ready.</p>", html.EscapeString(name))
}

func PasswordResetEmail(link string) (string, string) {
	return "Your Password Reset Link",
		fmt.Sprintf("<h1>Password Reset</h1><p>Click the link below to reset your password. This link is valid for 1 hour.</p><p><a href='%s'>Reset Password</a></p>", html.EscapeString(link))
}

func PaymentSuccessEmail(orderID string, tokens int) (string, string) {
	return "Your Token Purchase is Complete!",
		fmt.Sprintf("<h1>Payment Received</h1><p>Order %s was paid successfully. %d tokens have been added to your balance.</p>", html.EscapeString(orderID), tokens)
}

func ReferralMilestoneEmail(threshold, tokens int) (string, string) {
	return "You reached a referral milestone!",
		fmt.Sprintf("<h1>Congratulations!</h1><p>%d people have joined with your code. %d bonus tokens are waiting for you to claim.</p>", threshold, tokens)
}
