package domain

import "testing"

func TestAssetMapsCoverSupportedAssets(t *testing.T) {
	if len(AssetByID) != len(SupportedAssets) {
		t.Fatalf("AssetByID has %d entries, want %d", len(AssetByID), len(SupportedAssets))
	}
	for _, a := range SupportedAssets {
		byID, ok := AssetByID[a.ID]
		if !ok || byID.Symbol != a.Symbol {
			t.Fatalf("AssetByID missing or wrong for %s: %+v", a.ID, byID)
		}
		bySym, ok := AssetBySymbol[a.Symbol]
		if !ok || bySym.ID != a.ID {
			t.Fatalf("AssetBySymbol missing or wrong for %s: %+v", a.Symbol, bySym)
		}
		if a.BinancePair == "" {
			t.Fatalf("asset %s has no Binance pair", a.ID)
		}
	}
}

func TestSupportedIDsOrder(t *testing.T) {
	ids := SupportedIDs()
	if len(ids) != len(SupportedAssets) {
		t.Fatalf("got %d ids, want %d", len(ids), len(SupportedAssets))
	}
	if ids[0] != "bitcoin" || ids[2] != "solana" {
		t.Fatalf("unexpected id order: %v", ids)
	}
}
