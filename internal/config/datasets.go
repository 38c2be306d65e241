package config

// DefaultDatasets returns the built-in country baskets used when the
// configuration file defines none. Weights are relative importances; the
// yield-curve spread and annual inflation are derived columns, so the spread
// carries no source code and inflation carries no weight.
func DefaultDatasets() map[string]DatasetConfig {
	return map[string]DatasetConfig{
		"USA": {
			Indicators: []IndicatorConfig{
				{Name: "Yield Curve (10y-3m)", Weight: 35, RiskRising: false},
				{Name: "Real GDP", Code: "GDPC1", Weight: 30, RiskRising: false},
				{Name: "Unemployment", Code: "UNRATE", Weight: 30, RiskRising: true},
				{Name: "CPI", Code: "CPIAUCSL", Weight: 25, RiskRising: true},
				{Name: "Industrial Production", Code: "INDPRO", Weight: 15, RiskRising: false},
				{Name: "Retail Sales", Code: "RSAFS", Weight: 15, RiskRising: false},
				{Name: "10-Year Rate", Code: "GS10", Weight: 5, RiskRising: true},
				{Name: "3-Month Rate", Code: "TB3MS", Weight: 5, RiskRising: true},
				{Name: "Consumer Confidence", Code: "UMCSENT", Weight: 10, RiskRising: false},
				{Name: "Nonfarm Payrolls", Code: "PAYEMS", Weight: 15, RiskRising: false},
				{Name: "Building Permits", Code: "PERMIT", Weight: 5, RiskRising: false},
				{Name: "S&P 500", Code: "SP500", Weight: 10, RiskRising: false},
				{Name: "WTI Oil", Code: "DCOILWTICO", Weight: 5, RiskRising: false},
				{Name: "30Y Fixed Mortgage", Code: "MORTGAGE30US", Weight: 5, RiskRising: true},
				{Name: "Mortgage Delinquencies", Code: "QBPAMISM", Weight: 10, RiskRising: true},
				{Name: "Personal Consumption Expenditure", Code: "PCE", Weight: 10, RiskRising: false},
				{Name: "Personal Income", Code: "PI", Weight: 10, RiskRising: false},
				{Name: "Durable Goods Orders", Code: "DGORDER", Weight: 10, RiskRising: false},
				{Name: "ISM Manufacturing", Code: "NAPM", Weight: 15, RiskRising: false},
				{Name: "ISM Services", Code: "SERVPMI", Weight: 15, RiskRising: false},
				{Name: "M2 Money Supply", Code: "M2SL", Weight: 5, RiskRising: false},
				{Name: "Corporate Profits", Code: "CP", Weight: 15, RiskRising: false},
			},
			Derived: DerivedConfig{
				PriceColumn:   "CPI",
				InflationName: "Annual Inflation (%)",
				SpreadLong:    "10-Year Rate",
				SpreadShort:   "3-Month Rate",
				SpreadName:    "Yield Curve (10y-3m)",
			},
		},
	}
}
