package controllers

import (
	"context"

	"gorm.io/gorm"
)

// Hooks exported for tests living in package controllers_test.

type PlatformStats = platformStats

type ConversationSummary = conversationSummary

func MaskEmail(email string) string {
	return maskEmail(email)
}

func SetVerifyEmailDomain(f func(ctx context.Context, email string) bool) {
	verifyEmailDomain = f
}

func RecomputeMemberCount(tx *gorm.DB, communityID uint) error {
	return recomputeMemberCount(tx, communityID)
}
