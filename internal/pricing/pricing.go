// Package pricing computes authoritative order totals.
package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// Epsilon is the largest tolerated difference between a client total and the server total.
const Epsilon = 0.01

// Catalogue prices in whole EUR.
const (
	PriceBasis   = 49
	PricePlus    = 79
	PricePremium = 129

	PriceKaraoke = 29
	PriceRush    = 19
	PriceGift    = 15

	PriceCustomLyrics = 19

	PriceHochzeitsBundle = 35
	PricePerfektBundle   = 49
)

// ItemKind classifies a priced component.
type ItemKind string

const (
	KindPackage      ItemKind = "package"
	KindBundle       ItemKind = "bundle"
	KindAddon        ItemKind = "addon"
	KindCustomLyrics ItemKind = "custom_lyrics"
)

// Selection is the priced subset of an order form.
type Selection struct {
	Package      model.PackageType
	Bundle       model.Bundle
	Karaoke      bool
	Rush         bool
	Gift         bool
	CustomLyrics bool
	LyricsText   string
}

// LineItem is one itemised component of a quote.
type LineItem struct {
	Kind        ItemKind
	Code        string
	Name        string
	Description string
	Amount      int
}

// Quote is the result of pricing a selection.
type Quote struct {
	Package   model.PackageType
	Bundle    model.Bundle
	BasePrice int
	Items     []LineItem
	Total     int
}

var packages = map[model.PackageType]LineItem{
	model.PackageBasis: {
		Kind: KindPackage, Code: string(model.PackageBasis), Amount: PriceBasis,
		Name:        "Basis-Paket",
		Description: "Dein persönlicher Song als MP3",
	},
	model.PackagePlus: {
		Kind: KindPackage, Code: string(model.PackagePlus), Amount: PricePlus,
		Name:        "Plus-Paket",
		Description: "Song als MP3 mit Songtext-PDF und Cover-Bild",
	},
	model.PackagePremium: {
		Kind: KindPackage, Code: string(model.PackagePremium), Amount: PricePremium,
		Name:        "Premium-Paket",
		Description: "Song in Studioqualität mit Video, Songtext-PDF und Cover-Bild",
	},
}

var bundles = map[model.Bundle]LineItem{
	model.BundleHochzeits: {
		Kind: KindBundle, Code: string(model.BundleHochzeits), Amount: PriceHochzeitsBundle,
		Name:        "Hochzeits-Bundle",
		Description: "Karaoke-Version und Geschenkverpackung zum Vorzugspreis",
	},
	model.BundlePerfekt: {
		Kind: KindBundle, Code: string(model.BundlePerfekt), Amount: PricePerfektBundle,
		Name:        "Perfekt-Bundle",
		Description: "Karaoke-Version, Express-Lieferung und Geschenkverpackung",
	},
}

var addons = map[model.Bump]LineItem{
	model.BumpKaraoke: {
		Kind: KindAddon, Code: string(model.BumpKaraoke), Amount: PriceKaraoke,
		Name:        "Karaoke-Version",
		Description: "Instrumentalversion zum Mitsingen",
	},
	model.BumpRush: {
		Kind: KindAddon, Code: string(model.BumpRush), Amount: PriceRush,
		Name:        "Express-Lieferung",
		Description: "Lieferung innerhalb von 24 Stunden",
	},
	model.BumpGift: {
		Kind: KindAddon, Code: string(model.BumpGift), Amount: PriceGift,
		Name:        "Geschenkverpackung",
		Description: "Digitale Geschenkkarte zum Überreichen",
	},
}

var customLyrics = LineItem{
	Kind: KindCustomLyrics, Code: "custom_lyrics", Amount: PriceCustomLyrics,
	Name:        "Eigener Songtext",
	Description: "Wir vertonen deinen eigenen Text",
}

// Calculate prices a selection. The hochzeits bundle forces the plus package and
// add-ons contained in a bundle are not charged again.
func Calculate(sel Selection) (Quote, error) {
	bundle := sel.Bundle.Normalize()
	if !bundle.Valid() {
		return Quote{}, fmt.Errorf("unknown bundle %q", sel.Bundle)
	}

	pkg := sel.Package
	if forced, ok := bundle.ForcedPackage(); ok {
		pkg = forced
	}

	base, ok := packages[pkg]
	if !ok {
		return Quote{}, fmt.Errorf("unknown package %q", sel.Package)
	}

	q := Quote{Package: pkg, Bundle: bundle, BasePrice: base.Amount}
	q.Items = append(q.Items, base)

	if bundle.Selected() {
		q.Items = append(q.Items, bundles[bundle])
	}

	for _, bump := range []struct {
		kind model.Bump
		on   bool
	}{
		{model.BumpKaraoke, sel.Karaoke},
		{model.BumpRush, sel.Rush},
		{model.BumpGift, sel.Gift},
	} {
		if bump.on && !bundle.Includes(bump.kind) {
			q.Items = append(q.Items, addons[bump.kind])
		}
	}

	if sel.CustomLyrics && strings.TrimSpace(sel.LyricsText) != "" {
		q.Items = append(q.Items, customLyrics)
	}

	for _, item := range q.Items {
		q.Total += item.Amount
	}
	return q, nil
}

// CalculateTotal returns only the total of a selection.
func CalculateTotal(sel Selection) (int, error) {
	q, err := Calculate(sel)
	if err != nil {
		return 0, err
	}
	return q.Total, nil
}

// MatchesClientTotal reports whether an advisory client total agrees with the server total.
func MatchesClientTotal(client float64, server int) bool {
	return math.Abs(client-float64(server)) <= Epsilon
}

// MinorUnits converts whole currency units into cents.
func MinorUnits(amount int) int64 {
	return int64(amount) * 100
}
