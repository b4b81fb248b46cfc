package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wotclan/tanktrivia/internal/catalog"
)

const encyclopediaPageSize = 100

// WargamingClient fetches vehicle data from the Wargaming encyclopedia API.
type WargamingClient struct {
	baseURL       string
	applicationID string
	httpClient    *http.Client
}

func NewWargamingClient(realm, applicationID string, httpClient *http.Client) *WargamingClient {
	if realm == "" {
		realm = "eu"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WargamingClient{
		baseURL:       fmt.Sprintf("https://api.worldoftanks.%s/wot", realm),
		applicationID: applicationID,
		httpClient:    httpClient,
	}
}

type wgVehicle struct {
	TankID  int    `json:"tank_id"`
	Name    string `json:"name"`
	Images  struct {
		BigIcon string `json:"big_icon"`
	} `json:"images"`
	DefaultProfile struct {
		Ammo []struct {
			Type   string `json:"type"`
			Damage [3]int `json:"damage"`
		} `json:"ammo"`
	} `json:"default_profile"`
}

type wgResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		Count     int `json:"count"`
		PageTotal int `json:"page_total"`
	} `json:"meta"`
	Data map[string]wgVehicle `json:"data"`
}

// FetchPage retrieves one encyclopedia page of vehicles.
func (c *WargamingClient) FetchPage(ctx context.Context, page int) ([]catalog.Vehicle, int, error) {
	values := url.Values{}
	values.Set("application_id", c.applicationID)
	values.Set("fields", "tank_id,name,images.big_icon,default_profile.ammo")
	values.Set("limit", fmt.Sprint(encyclopediaPageSize))
	values.Set("page_no", fmt.Sprint(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/encyclopedia/vehicles/?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("wargaming non-200: %d", resp.StatusCode)
	}

	var payload wgResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, err
	}
	if payload.Status != "ok" {
		if payload.Error != nil {
			return nil, 0, fmt.Errorf("wargaming error %d: %s", payload.Error.Code, payload.Error.Message)
		}
		return nil, 0, fmt.Errorf("wargaming status %q", payload.Status)
	}

	vehicles := make([]catalog.Vehicle, 0, len(payload.Data))
	for _, raw := range payload.Data {
		v, ok := mapVehicle(raw)
		if !ok {
			continue
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, payload.Meta.PageTotal, nil
}

// FetchAll walks every encyclopedia page and returns the full catalog.
func (c *WargamingClient) FetchAll(ctx context.Context) ([]catalog.Vehicle, error) {
	var all []catalog.Vehicle
	page := 1
	for {
		vehicles, pageTotal, err := c.FetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		all = append(all, vehicles...)
		if page >= pageTotal {
			return all, nil
		}
		page++
	}
}

// mapVehicle drops vehicles without a full three-slot ammo loadout; the quiz
// needs all three slots to pick a tested stat from.
func mapVehicle(raw wgVehicle) (catalog.Vehicle, bool) {
	if len(raw.DefaultProfile.Ammo) < catalog.AmmoSlots {
		return catalog.Vehicle{}, false
	}
	v := catalog.Vehicle{
		ID:       raw.TankID,
		Name:     raw.Name,
		ImageURL: raw.Images.BigIcon,
	}
	for i := 0; i < catalog.AmmoSlots; i++ {
		v.Ammo[i] = catalog.Ammo{
			Type:   mapAmmoType(raw.DefaultProfile.Ammo[i].Type),
			Damage: raw.DefaultProfile.Ammo[i].Damage,
		}
	}
	return v, true
}

func mapAmmoType(s string) catalog.AmmoType {
	switch s {
	case "ARMOR_PIERCING":
		return catalog.AmmoAP
	case "ARMOR_PIERCING_CR":
		return catalog.AmmoAPCR
	case "HIGH_EXPLOSIVE":
		return catalog.AmmoHE
	case "HOLLOW_CHARGE":
		return catalog.AmmoHEAT
	default:
		return catalog.AmmoType(s)
	}
}
