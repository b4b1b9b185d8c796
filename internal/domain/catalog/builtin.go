package catalog

import "github.com/okian/relocator/internal/domain/model"

// Builtin returns the default French regions catalog.
func Builtin() *Catalog {
	return MustNew(builtinRegions())
}

func scores(urban, coastal, rural, cultural, family, career int) map[model.Attribute]int {
	return map[model.Attribute]int{
		model.AttrUrban:            urban,
		model.AttrCoastal:          coastal,
		model.AttrRural:            rural,
		model.AttrCulturalAffinity: cultural,
		model.AttrFamilyFit:        family,
		model.AttrCareerFit:        career,
	}
}

func builtinRegions() []model.Region {
	return []model.Region{
		{
			ID:            "ile-de-france",
			Name:          "Île-de-France",
			Description:   "Paris and its surroundings offer world-class culture, career opportunities, and urban excitement. Perfect for professionals and culture enthusiasts.",
			BaseCost:      1800,
			ClimateTag:    "oceanic",
			CommunitySize: model.CommunityVeryLarge,
			Scores:        scores(10, 1, 2, 8, 6, 10),
		},
		{
			ID:            "provence-alpes-cote-dazur",
			Name:          "Provence-Alpes-Côte d'Azur",
			Description:   "Sun-drenched Mediterranean lifestyle with stunning coastlines, vibrant markets, and a relaxed pace of life. Ideal for those seeking warmth and beauty.",
			BaseCost:      1300,
			ClimateTag:    "mediterranean",
			CommunitySize: model.CommunityVeryLarge,
			Scores:        scores(6, 10, 6, 9, 7, 6),
		},
		{
			ID:            "nouvelle-aquitaine",
			Name:          "Nouvelle-Aquitaine",
			Description:   "Bordeaux's wine country combines gastronomy, history, and a growing tech scene. Great for foodies and those seeking work-life balance.",
			BaseCost:      950,
			ClimateTag:    "oceanic",
			CommunitySize: model.CommunityLarge,
			Scores:        scores(5, 8, 8, 9, 8, 6),
		},
		{
			ID:            "occitanie",
			Name:          "Occitanie",
			Description:   "From Toulouse's aerospace industry to Montpellier's beaches, this diverse region offers affordability and sunshine. Perfect for families and remote workers.",
			BaseCost:      850,
			ClimateTag:    "mediterranean",
			CommunitySize: model.CommunityLarge,
			Scores:        scores(5, 7, 8, 8, 9, 6),
		},
		{
			ID:            "bretagne",
			Name:          "Bretagne",
			Description:   "Celtic heritage, dramatic coastlines, and tight-knit communities. Ideal for nature lovers and those seeking authentic French village life.",
			BaseCost:      750,
			ClimateTag:    "oceanic",
			CommunitySize: model.CommunityMediumLarge,
			Scores:        scores(3, 9, 8, 7, 8, 4),
		},
		{
			ID:            "auvergne-rhone-alpes",
			Name:          "Auvergne-Rhône-Alpes",
			Description:   "Lyon's gastronomic capital status plus Alpine adventures. Perfect for food lovers and outdoor enthusiasts alike.",
			BaseCost:      1000,
			ClimateTag:    "continental-alpine",
			CommunitySize: model.CommunityMediumLarge,
			Scores:        scores(7, 1, 8, 9, 8, 8),
		},
	}
}
