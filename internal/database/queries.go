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

package database

const (
	// User queries
	queryGetUserById = `
		SELECT id, name, email, evm_wallet_address, solana_wallet_address, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserIdByEmail = `
		SELECT id FROM users WHERE email = ? LIMIT 1`

	queryInsertUser = `
		INSERT INTO users (id, name, email, evm_wallet_address, solana_wallet_address)
		VALUES (?, ?, ?, ?, ?)`

	queryFindUserByAddressId = `
		SELECT u.id, u.name, u.email, u.evm_wallet_address, u.solana_wallet_address, u.created_at, u.updated_at
		FROM users u
		JOIN addresses a ON u.id = a.user_id
		WHERE a.id = ? AND u.active = 1`

	queryInsertAddress = `
		INSERT INTO addresses (id, user_id, address, wallet_id, chain)
		VALUES (?, ?, ?, ?, ?)`

	// Webhook audit queries
	queryInsertWebhookEvent = `
		INSERT INTO webhook_events (id, event_type, address_id, transaction_id, payload)
		VALUES (?, ?, ?, ?, ?)`

	// Ledger queries
	queryCheckDuplicateTransaction = `
		SELECT id FROM transactions WHERE tx_hash = ? AND purpose = ? LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, direction, chain, tx_hash, gross_amount, fee_amount, net_amount,
			token, status, purpose, document_id, payout_id, reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPayoutByPayoutId = `
		SELECT id, user_id, direction, chain, tx_hash, gross_amount, fee_amount, net_amount,
		       token, status, purpose, document_id, payout_id, reason, created_at
		FROM transactions
		WHERE payout_id = ? AND purpose = 'payout'
		LIMIT 1`

	queryUpdatePayoutStatus = `
		UPDATE transactions
		SET status = ?
		WHERE payout_id = ? AND purpose = 'payout'`

	queryUpdatePayoutStatusAndHash = `
		UPDATE transactions
		SET status = ?, tx_hash = ?
		WHERE payout_id = ? AND purpose = 'payout'`

	queryGetBalanceRow = `
		SELECT id, balance, version
		FROM account_balances
		WHERE user_id = ? AND chain = ? AND asset = ?`

	queryInsertBalanceRow = `
		INSERT INTO account_balances (id, user_id, chain, asset, balance, version)
		VALUES (?, ?, ?, ?, ?, 1)`

	queryUpdateBalanceRow = `
		UPDATE account_balances
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND chain = ? AND asset = ? AND version = ?`

	queryGetAllUserBalances = `
		SELECT id, user_id, chain, asset, balance, version, updated_at
		FROM account_balances
		WHERE user_id = ?
		ORDER BY chain, asset`

	queryGetTransactionHistory = `
		SELECT id, user_id, direction, chain, tx_hash, gross_amount, fee_amount, net_amount,
		       token, status, purpose, document_id, payout_id, reason, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	// Document queries
	queryGetDocument = `
		SELECT id, user_id, client_id, doc_type, status, content, created_at, updated_at
		FROM documents
		WHERE id = ?`

	queryMarkDocumentPaid = `
		UPDATE documents
		SET status = ?, content = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryInsertDocument = `
		INSERT INTO documents (id, user_id, client_id, doc_type, status, content)
		VALUES (?, ?, ?, ?, ?, ?)`

	// Milestone queries
	queryInsertMilestone = `
		INSERT INTO milestones (id, project_id, title)
		VALUES (?, ?, ?)`

	queryMarkMilestonePaid = `
		UPDATE milestones
		SET status = 'paid', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status != 'paid'`

	queryGetMilestoneStatus = `
		SELECT status FROM milestones WHERE id = ?`

	// Client queries. Earnings are summed in Go with decimals; amounts are
	// stored as strings and must never round-trip through floats.
	queryInsertClient = `
		INSERT INTO clients (id, user_id, name, email)
		VALUES (?, ?, ?, ?)`

	querySelectClientDepositAmounts = `
		SELECT t.gross_amount
		FROM transactions t
		JOIN documents d ON t.document_id = d.id
		WHERE d.client_id = ?
		  AND t.purpose = 'deposit'
		  AND t.status = 'CONFIRMED'`

	queryUpdateClientEarnings = `
		UPDATE clients
		SET total_earnings = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryGetClientEarnings = `
		SELECT total_earnings FROM clients WHERE id = ?`

	// Notification queries
	queryInsertNotification = `
		INSERT INTO notifications (id, user_id, notification_type, title, message, metadata)
		VALUES (?, ?, ?, ?, ?, ?)`

	// Offramp order queries
	queryInsertOfframpOrder = `
		INSERT INTO offramp_orders (id, user_id, amount, token)
		VALUES (?, ?, ?, ?)`

	queryGetOfframpOrder = `
		SELECT id, user_id, status, amount, token, tx_hash, failure_reason, created_at, updated_at
		FROM offramp_orders
		WHERE id = ?`

	queryUpdateOfframpOrder = `
		UPDATE offramp_orders
		SET status = ?,
		    tx_hash = CASE WHEN ? != '' THEN ? ELSE tx_hash END,
		    failure_reason = CASE WHEN ? != '' THEN ? ELSE failure_reason END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
)
