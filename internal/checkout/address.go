package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/geo"
)

// ProfileSource loads the stored user settings.
type ProfileSource interface {
	Load(ctx context.Context) (*domain.Settings, error)
}

// AddressResolver picks the delivery address: the profile address first,
// then the device location reverse-geocoded.
type AddressResolver struct {
	profile  ProfileSource
	geocoder geo.Geocoder
}

// NewAddressResolver accepts a nil geocoder; location fallback is then skipped.
func NewAddressResolver(profile ProfileSource, geocoder geo.Geocoder) *AddressResolver {
	return &AddressResolver{profile: profile, geocoder: geocoder}
}

func (r *AddressResolver) Resolve(ctx context.Context) (string, error) {
	st, err := r.profile.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if addr := strings.TrimSpace(st.Address); addr != "" {
		return addr, nil
	}
	if st.Location == nil || r.geocoder == nil {
		return "", ErrNoAddress
	}

	addr, err := r.geocoder.Reverse(ctx, *st.Location)
	if errors.Is(err, geo.ErrNoResult) {
		return "", ErrNoAddress
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoAddress, err)
	}
	return addr, nil
}
