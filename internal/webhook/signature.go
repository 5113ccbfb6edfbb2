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

// Package webhook verifies and parses custody provider webhook
// deliveries into the strict event representation.
package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the provider's HMAC signature of the raw
// request body.
const SignatureHeader = "x-custody-signature"

var (
	ErrSignature     = errors.New("invalid webhook signature")
	ErrConfiguration = errors.New("webhook secret not configured")
)

// VerifySignature checks the provider's HMAC-SHA512 signature over the
// exact raw request bytes. The provider signs with its API key rather
// than a dedicated webhook secret; that is the provider's documented
// behavior, not a choice made here.
func VerifySignature(raw []byte, signature, secret string) error {
	if secret == "" {
		return ErrConfiguration
	}
	if signature == "" || len(raw) == 0 {
		return ErrSignature
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(raw)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignature
	}
	return nil
}
