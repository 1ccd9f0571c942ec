package cropadvisor

import (
	"fmt"
	"sort"
)

// PHRange is the soil pH band a crop prefers.
type PHRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CropMetadata describes a crop the classifier can predict.
type CropMetadata struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	Season         string  `json:"season"`
	GrowthDuration string  `json:"growth_duration"`
	IdealPH        PHRange `json:"ideal_ph"`
	MarketValue    string  `json:"market_value"`
}

// UnmappedCategory marks placeholder metadata for labels outside the curated map.
const UnmappedCategory = "unmapped"

// LabelMap resolves classifier labels to crop metadata. It is read-only once built.
type LabelMap map[int]CropMetadata

// DefaultLabels follows the LabelEncoder ordering of the 22-crop recommendation
// dataset (classes sorted alphabetically).
var DefaultLabels = LabelMap{
	0: {Name: "Apple", Category: "fruit", Season: "Winter (temperate)", GrowthDuration: "150-180 days to harvest after bloom",
		IdealPH: PHRange{5.5, 6.5}, MarketValue: "high",
		Description: "Temperate fruit that needs chilling hours, well-drained loamy soil and moderate rainfall."},
	1: {Name: "Banana", Category: "fruit", Season: "Year-round", GrowthDuration: "9-12 months",
		IdealPH: PHRange{6.0, 7.5}, MarketValue: "medium",
		Description: "Tropical fruit crop that prefers warm humid climate, rich soil and steady irrigation."},
	2: {Name: "Blackgram", Category: "pulse", Season: "Kharif", GrowthDuration: "80-90 days",
		IdealPH: PHRange{6.5, 7.5}, MarketValue: "medium",
		Description: "Short-duration pulse that fixes nitrogen and tolerates warm, moderately dry conditions."},
	3: {Name: "Chickpea", Category: "pulse", Season: "Rabi", GrowthDuration: "90-120 days",
		IdealPH: PHRange{6.0, 8.0}, MarketValue: "medium",
		Description: "Cool-season pulse grown on residual moisture; sensitive to waterlogging."},
	4: {Name: "Coconut", Category: "plantation", Season: "Year-round", GrowthDuration: "6-10 years to first yield",
		IdealPH: PHRange{5.2, 8.0}, MarketValue: "medium",
		Description: "Coastal palm that needs high humidity, sandy loam and abundant rainfall."},
	5: {Name: "Coffee", Category: "plantation", Season: "Post-monsoon harvest", GrowthDuration: "3-4 years to first yield",
		IdealPH: PHRange{6.0, 6.5}, MarketValue: "high",
		Description: "Shade-grown plantation crop for hill slopes with well-distributed rainfall."},
	6: {Name: "Cotton", Category: "fibre", Season: "Kharif", GrowthDuration: "150-180 days",
		IdealPH: PHRange{5.8, 8.0}, MarketValue: "high",
		Description: "Fibre crop for textiles; needs a warm climate, moderate rainfall and fertile black soil."},
	7: {Name: "Grapes", Category: "fruit", Season: "Rabi pruning, summer harvest", GrowthDuration: "120-150 days after pruning",
		IdealPH: PHRange{6.5, 7.5}, MarketValue: "high",
		Description: "Vine fruit grown in dry warm regions with controlled irrigation."},
	8: {Name: "Jute", Category: "fibre", Season: "Kharif", GrowthDuration: "120-150 days",
		IdealPH: PHRange{6.0, 7.5}, MarketValue: "low",
		Description: "Bast fibre crop of humid alluvial plains with high rainfall."},
	9: {Name: "Kidneybeans", Category: "pulse", Season: "Rabi", GrowthDuration: "90-120 days",
		IdealPH: PHRange{5.5, 6.0}, MarketValue: "medium",
		Description: "Legume for cool dry weather; needs low humidity and well-drained soil."},
	10: {Name: "Lentil", Category: "pulse", Season: "Rabi", GrowthDuration: "100-110 days",
		IdealPH: PHRange{6.0, 7.5}, MarketValue: "medium",
		Description: "Hardy cool-season pulse suited to low rainfall and loamy soil."},
	11: {Name: "Maize", Category: "cereal", Season: "Kharif", GrowthDuration: "90-110 days",
		IdealPH: PHRange{5.5, 7.0}, MarketValue: "medium",
		Description: "Versatile cereal for food and fodder; grows in fertile, well-drained soil with moderate rainfall."},
	12: {Name: "Mango", Category: "fruit", Season: "Summer", GrowthDuration: "3-5 years to first yield",
		IdealPH: PHRange{5.5, 7.5}, MarketValue: "high",
		Description: "Tropical orchard fruit that needs a dry spell before flowering."},
	13: {Name: "Mothbeans", Category: "pulse", Season: "Kharif", GrowthDuration: "75-90 days",
		IdealPH: PHRange{3.5, 10.0}, MarketValue: "low",
		Description: "Drought-hardy pulse for arid sandy soils."},
	14: {Name: "Mungbean", Category: "pulse", Season: "Kharif / Zaid", GrowthDuration: "60-75 days",
		IdealPH: PHRange{6.2, 7.2}, MarketValue: "medium",
		Description: "Short-duration green gram that improves soil nitrogen."},
	15: {Name: "Muskmelon", Category: "fruit", Season: "Zaid", GrowthDuration: "80-100 days",
		IdealPH: PHRange{6.0, 7.0}, MarketValue: "medium",
		Description: "Summer cucurbit for sandy river beds with warm dry weather."},
	16: {Name: "Orange", Category: "fruit", Season: "Winter harvest", GrowthDuration: "3-5 years to first yield",
		IdealPH: PHRange{6.0, 7.5}, MarketValue: "high",
		Description: "Citrus orchard crop for subtropical climate and light, well-drained soil."},
	17: {Name: "Papaya", Category: "fruit", Season: "Year-round", GrowthDuration: "9-11 months",
		IdealPH: PHRange{6.0, 7.0}, MarketValue: "medium",
		Description: "Fast-growing tropical fruit sensitive to frost and standing water."},
	18: {Name: "Pigeonpeas", Category: "pulse", Season: "Kharif", GrowthDuration: "150-180 days",
		IdealPH: PHRange{5.0, 7.0}, MarketValue: "medium",
		Description: "Deep-rooted pulse tolerant of dry spells; often intercropped."},
	19: {Name: "Pomegranate", Category: "fruit", Season: "Year-round (bahar)", GrowthDuration: "2-3 years to first yield",
		IdealPH: PHRange{5.5, 7.5}, MarketValue: "high",
		Description: "Hardy fruit for semi-arid regions with hot dry summers."},
	20: {Name: "Rice", Category: "cereal", Season: "Kharif", GrowthDuration: "110-150 days",
		IdealPH: PHRange{5.0, 6.5}, MarketValue: "medium",
		Description: "Staple crop grown in waterlogged fields; needs high rainfall, high humidity and warm temperatures."},
	21: {Name: "Watermelon", Category: "fruit", Season: "Zaid", GrowthDuration: "80-110 days",
		IdealPH: PHRange{6.0, 7.0}, MarketValue: "medium",
		Description: "Warm-season cucurbit for sandy loam with plenty of sunshine."},
}

// Lookup returns the metadata for label. Unknown labels get a placeholder entry
// and ok=false instead of an error.
func (m LabelMap) Lookup(label int) (CropMetadata, bool) {
	if meta, ok := m[label]; ok {
		return meta, true
	}
	return CropMetadata{
		Name:        fmt.Sprintf("Unmapped (%d)", label),
		Category:    UnmappedCategory,
		Description: "No description available for this crop yet.",
		Season:      "unknown",
		MarketValue: "unknown",
	}, false
}

// Labels returns the known label ids in ascending order.
func (m LabelMap) Labels() []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
