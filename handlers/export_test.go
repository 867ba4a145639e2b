package handlers

import "golang.org/x/oauth2"

func SetGoogleEndpoints(authURL, tokenURL, userInfoURL string) func() {
	prevEndpoint, prevUserInfo := googleEndpoint, googleUserInfoURL
	googleEndpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	googleUserInfoURL = userInfoURL
	return func() {
		googleEndpoint, googleUserInfoURL = prevEndpoint, prevUserInfo
	}
}
