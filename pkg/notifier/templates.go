package notifier

import (
	"fmt"
	"strconv"

	"github.com/diagnosis/cinelist/pkg/events"
)

func OTPEmail(to, code string) Message {
	return Message{
		Type:    events.NotificationOTP,
		To:      to,
		Subject: "Your Email Verification Captcha",
		Body:    fmt.Sprintf("Your OTP for email verification is %s. It is only applicable for 5 minutes. Thank you.", code),
	}
}

func ReviewAddedEmail(to, movieTitle string, rating float64) Message {
	return Message{
		Type:    events.NotificationReviewAdded,
		To:      to,
		Subject: "Thank you for your Review",
		Body: fmt.Sprintf("Your review to the movie %s is successfully added with the rating %s.",
			movieTitle, strconv.FormatFloat(rating, 'f', -1, 64)),
	}
}

func WatchlistAddedEmail(to, movieTitle string) Message {
	return Message{
		Type:    events.NotificationWatchlistAdded,
		To:      to,
		Subject: fmt.Sprintf("%s Added to Watchlist", movieTitle),
		Body:    fmt.Sprintf("Your movie %s has been added to your watchlist.", movieTitle),
	}
}

func WatchlistRemovedEmail(to, movieTitle string) Message {
	return Message{
		Type:    events.NotificationWatchlistRemoved,
		To:      to,
		Subject: fmt.Sprintf("%s removed from Watchlist", movieTitle),
		Body:    fmt.Sprintf("Your movie %s has been removed from your watchlist.", movieTitle),
	}
}
