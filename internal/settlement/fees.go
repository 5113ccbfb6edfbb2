/**
 * Copyright 2025-present Paylance, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultFeeRate is the platform fee applied to settled payments (0.5%).
var DefaultFeeRate = decimal.NewFromFloat(0.005)

// FeeCalculator splits a gross settlement amount into the platform fee
// and the net payout. Pure arithmetic, no I/O.
type FeeCalculator struct {
	rate decimal.Decimal
}

func NewFeeCalculator(rate decimal.Decimal) (*FeeCalculator, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be in [0, 1), got %s", rate.String())
	}
	return &FeeCalculator{rate: rate}, nil
}

// Split returns (fee, net) for a gross amount. fee + net == gross holds
// exactly because fee is derived by subtraction, never computed twice.
func (f *FeeCalculator) Split(gross decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("gross amount must be positive, got %s", gross.String())
	}
	net := gross.Mul(decimal.NewFromInt(1).Sub(f.rate))
	fee := gross.Sub(net)
	return fee, net, nil
}

// Rate returns the configured fee rate.
func (f *FeeCalculator) Rate() decimal.Decimal { return f.rate }
