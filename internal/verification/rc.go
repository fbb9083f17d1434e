package verification

import "context"

// RCDetails is the subset of the vehicle registration record used to fill
// loan applications.
type RCDetails struct {
	RCNumber          string `json:"rc_number"`
	OwnerName         string `json:"owner_name"`
	MakerDescription  string `json:"maker_description"`
	MakerModel        string `json:"maker_model"`
	FuelType          string `json:"fuel_type"`
	ChassisNumber     string `json:"vehicle_chasi_number"`
	EngineNumber      string `json:"vehicle_engine_number"`
	Financier         string `json:"financer"`
	Financed          bool   `json:"financed"`
	ManufacturingDate string `json:"manufacturing_date_formatted"`
	InsuranceCompany  string `json:"insurance_company"`
	InsuranceUpto     string `json:"insurance_upto"`
	PUCCUpto          string `json:"pucc_upto"`
}

func (c *Client) LookupRC(ctx context.Context, rcNumber string) (*RCDetails, error) {
	var out RCDetails
	if err := c.post(ctx, "rc", "/api/rc/verify.php", map[string]string{"rc_number": rcNumber}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
