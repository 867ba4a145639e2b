package services

import "errors"

var (
	ErrInsufficientTokens = errors.New("insufficient tokens")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session has already ended")
	ErrSessionActive   = errors.New("session has not ended yet")
	ErrAlreadyScored   = errors.New("session results have already been saved")
	ErrNotScored       = errors.New("session has not been scored yet")
	ErrNoAnswers       = errors.New("there are no answers to score")
	ErrMalformedReply  = errors.New("could not understand the grading reply")

	ErrEssayNotFound = errors.New("essay not found")

	ErrPackNotFound        = errors.New("token pack not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionSettled  = errors.New("transaction has already been settled")
	ErrInvalidSignature    = errors.New("invalid notification signature")
	ErrAmountMismatch      = errors.New("notified amount does not match the order")

	ErrReferralNotFound    = errors.New("referral code not found")
	ErrReferralOwnCode     = errors.New("you cannot apply your own referral code")
	ErrReferralAlreadyUsed = errors.New("you have already applied a referral code")
	ErrNothingToClaim      = errors.New("there are no pending referral tokens to claim")
)
