package validators

import (
	"errors"
	"slices"
)

var (
	ErrCampaignNameEmpty    = errors.New("campaign name can't be empty")
	ErrCampaignSubjectEmpty = errors.New("campaign subject can't be empty")
	ErrCampaignBodyEmpty    = errors.New("campaign body can't be empty")
	ErrCampaignBadSegment   = errors.New("invalid campaign segment")
	ErrCampaignBadRate      = errors.New("rate per hour must be between 1 and 10000")
)

var validSegments = []string{"all", "members", "lapsed", "admins"}

type CampaignInput struct {
	Name        string
	Subject     string
	Body        string
	Segment     string
	RatePerHour int
}

func CampaignValidator(in CampaignInput) error {
	if in.Name == "" {
		return ErrCampaignNameEmpty
	}

	if in.Subject == "" {
		return ErrCampaignSubjectEmpty
	}

	if in.Body == "" {
		return ErrCampaignBodyEmpty
	}

	if !slices.Contains(validSegments, in.Segment) {
		return ErrCampaignBadSegment
	}

	if in.RatePerHour < 1 || in.RatePerHour > 10000 {
		return ErrCampaignBadRate
	}

	return nil
}
