package advisory

// Label is a disease class name as produced by the classifier.
type Label string

const (
	BacterialSpot       Label = "Tomato_Bacterial_spot"
	EarlyBlight         Label = "Tomato_Early_blight"
	LateBlight          Label = "Tomato_Late_blight"
	LeafMold            Label = "Tomato_Leaf_Mold"
	SeptoriaLeafSpot    Label = "Tomato_Septoria_leaf_spot"
	SpiderMites         Label = "Tomato_Spider_mites_Two_spotted_spider_mite"
	TargetSpot          Label = "Tomato_Target_Spot"
	YellowLeafCurlVirus Label = "Tomato_Tomato_Yellow_Leaf_Curl_Virus"
	MosaicVirus         Label = "Tomato_Tomato_mosaic_virus"
	Healthy             Label = "Tomato_healthy"
)

type Record struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Treatment   string `json:"treatment"`
}

// Labels lists every label with an advisory record, in class-index order.
var Labels = []Label{
	BacterialSpot,
	EarlyBlight,
	LateBlight,
	LeafMold,
	SeptoriaLeafSpot,
	SpiderMites,
	TargetSpot,
	YellowLeafCurlVirus,
	MosaicVirus,
	Healthy,
}

var records = map[Label]Record{
	BacterialSpot: {
		Name:        "Tomato bacterial spot",
		Description: "A common tomato disease caused by Xanthomonas bacteria. Early infection shows small dark brown lesions on leaves, stems and fruit.",
		Treatment:   "Apply copper-based bactericides; rotate crops; plant resistant varieties; avoid wetting foliage when irrigating; remove infected plants and debris.",
	},
	EarlyBlight: {
		Name:        "Tomato early blight",
		Description: "A fungal disease that starts as small dark brown spots on leaves which enlarge into concentric-ringed lesions. Severe cases cause leaves to wither.",
		Treatment:   "Spray fungicide on a regular schedule; avoid handling plants while wet; remove and destroy infected parts; keep air circulating around plants.",
	},
	LateBlight: {
		Name:        "Tomato late blight",
		Description: "Spreads quickly in cool, wet weather. Irregular grey-green water-soaked patches appear on leaves and stems and turn brown to black.",
		Treatment:   "Use preventive fungicide; improve ventilation; avoid wetting foliage; plant in dry conditions; promptly remove infected plant parts.",
	},
	LeafMold: {
		Name:        "Tomato leaf mold",
		Description: "Severe under high humidity. Pale to yellow patches form on the upper leaf surface with olive-green to grey-brown mold underneath.",
		Treatment:   "Lower greenhouse humidity; increase plant spacing; avoid overhead watering; use resistant varieties; apply fungicide where appropriate.",
	},
	SeptoriaLeafSpot: {
		Name:        "Tomato septoria leaf spot",
		Description: "Small round spots with grey-white centers and dark brown margins. Heavy infection yellows leaves and makes them drop.",
		Treatment:   "Apply fungicide regularly; remove infected leaves; avoid humid conditions; rotate crops; widen spacing to improve airflow.",
	},
	SpiderMites: {
		Name:        "Two-spotted spider mite",
		Description: "Tiny pests feeding on sap from the underside of leaves, leaving yellow or white speckles on top. Heavy infestations produce webbing and wilting.",
		Treatment:   "Use a miticide; rinse leaves with water; introduce predators such as predatory mites; keep plants vigorous; isolate infested plants.",
	},
	TargetSpot: {
		Name:        "Tomato target spot",
		Description: "Brown lesions with concentric rings resembling a target form on leaves, stems and fruit, reducing growth and yield.",
		Treatment:   "Apply fungicide regularly; keep good ventilation; avoid wetting foliage; remove and destroy infected parts; choose resistant varieties.",
	},
	YellowLeafCurlVirus: {
		Name:        "Tomato yellow leaf curl virus",
		Description: "Transmitted by whiteflies. Infected plants show yellowing, curled leaves, stunting and flower drop, with heavy yield loss.",
		Treatment:   "Control whiteflies; use insect netting; spray insecticide regularly; clear weeds; plant resistant varieties; remove infected plants early.",
	},
	MosaicVirus: {
		Name:        "Tomato mosaic virus",
		Description: "Causes a yellow-green mosaic, puckering or distortion of leaves. Fruit may show yellow streaks or deformities.",
		Treatment:   "No direct chemical control; remove and burn infected plants; disinfect tools; rotate crops; choose resistant varieties; avoid handling wet plants.",
	},
	Healthy: {
		Name:        "Healthy tomato",
		Description: "The plant looks healthy: leaves are a normal green with no visible signs of disease or pests.",
		Treatment:   "Keep up good practice: timely watering, fertilizing, staking and pruning; inspect plants regularly; apply preventive pest management.",
	},
}

// Lookup returns the advisory record for label. Unknown labels get a generic
// record named after the label itself.
func Lookup(label string) Record {
	if r, ok := records[Label(label)]; ok {
		return r
	}
	return Record{
		Name:        label,
		Description: "Unknown disease type.",
		Treatment:   "Consult a plant pathologist for a detailed diagnosis and treatment advice.",
	}
}

// All returns every known label mapped to its record.
func All() map[Label]Record {
	out := make(map[Label]Record, len(Labels))
	for _, l := range Labels {
		out[l] = records[l]
	}
	return out
}
