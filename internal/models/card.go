package models

import "strings"

// ImageURIs holds the image links Scryfall provides per printing (or per face).
type ImageURIs struct {
	Small  string `json:"small,omitempty"`
	Normal string `json:"normal,omitempty"`
	Large  string `json:"large,omitempty"`
}

// Prices is Scryfall's raw price object. Values are string-encoded decimals;
// an empty string means the price is unknown for that finish.
type Prices struct {
	USD       string `json:"usd,omitempty"`
	USDFoil   string `json:"usd_foil,omitempty"`
	USDEtched string `json:"usd_etched,omitempty"`
}

// CardFace is one face of a multi-faced card (transform, modal DFC, etc.).
type CardFace struct {
	Name          string     `json:"name"`
	TypeLine      string     `json:"type_line,omitempty"`
	OracleText    string     `json:"oracle_text,omitempty"`
	ImageURIs     *ImageURIs `json:"image_uris,omitempty"`
	Colors        []string   `json:"colors,omitempty"`
	ColorIdentity []string   `json:"color_identity,omitempty"`
}

// Printing is one physical printing of a card as returned by Scryfall.
// Printings sharing an OracleID are the same rules object; only set,
// collector number, prices, images, and release date vary between them.
type Printing struct {
	ID             string     `json:"id"`
	OracleID       string     `json:"oracle_id,omitempty"`
	Name           string     `json:"name"`
	Layout         string     `json:"layout,omitempty"`
	TypeLine       string     `json:"type_line,omitempty"`
	Set            string     `json:"set,omitempty"`
	SetName        string     `json:"set_name,omitempty"`
	CollectorNum   string     `json:"collector_number,omitempty"`
	ReleasedAt     string     `json:"released_at,omitempty"`
	ScryfallURI    string     `json:"scryfall_uri,omitempty"`
	PrintsURI      string     `json:"prints_search_uri,omitempty"`
	ColorIdentity  []string   `json:"color_identity,omitempty"`
	Colors         []string   `json:"colors,omitempty"`
	Prices         Prices     `json:"prices"`
	ImageURIs      *ImageURIs `json:"image_uris,omitempty"`
	CardFaces      []CardFace `json:"card_faces,omitempty"`
	Promo          bool       `json:"promo,omitempty"`
	FullArt        bool       `json:"full_art,omitempty"`
	BorderColor    string     `json:"border_color,omitempty"`
}

// PrintSummary is the lightweight per-printing record attached to a
// resolved card's prints list.
type PrintSummary struct {
	Set          string `json:"set"`
	SetName      string `json:"set_name"`
	CollectorNum string `json:"collector_number"`
	Prices       Prices `json:"prices"`
	ReleasedAt   string `json:"released_at"`
}

// CanonicalCard is the de-duplicated, enriched card record served to API
// consumers. ColorIdentity is never empty for a nonland card (colorless
// nonlands are normalized to ["C"]); lands legitimately keep an empty
// identity, since an empty identity on a land is valid deckbuilding data.
type CanonicalCard struct {
	Name          string         `json:"name"`
	ScryfallURI   string         `json:"scryfall_uri,omitempty"`
	Image         string         `json:"image,omitempty"`
	Price         *float64       `json:"price"`
	ColorIdentity []string       `json:"color_identity"`
	Colors        []string       `json:"colors,omitempty"`
	Layout        string         `json:"layout,omitempty"`
	TypeLine      string         `json:"type_line,omitempty"`
	Fetchable     bool           `json:"fetchable"`
	CardFaces     []CardFace     `json:"card_faces,omitempty"`
	Prices        *Prices        `json:"prices,omitempty"`
	Prints        []PrintSummary `json:"prints,omitempty"`
	Missing       bool           `json:"missing,omitempty"`
}

var basicLandTypes = []string{"Plains", "Island", "Swamp", "Mountain", "Forest"}

// IsFetchable reports whether a card with the given type line can be found
// by a fetch-land effect, i.e. its type line names a basic land type.
func IsFetchable(typeLine string) bool {
	for _, t := range basicLandTypes {
		if strings.Contains(typeLine, t) {
			return true
		}
	}
	return false
}

// IsLand reports whether the type line describes a land.
func IsLand(typeLine string) bool {
	return strings.Contains(strings.ToLower(typeLine), "land")
}
