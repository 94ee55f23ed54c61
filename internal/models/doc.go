// Package models defines the core domain models for Centsai.
//
// # Models
//
//   - User: a registered account that owns expenses
//   - Expense: a single spending record with a positive amount
//   - Date: a calendar day used by expenses and their JSON representations
//
// # Design Principles
//
// 1. **Numeric identities**: users and expenses are identified by store-assigned int64 IDs
// 2. **Exact money**: amounts are decimals, never floats
// 3. **Explicit ownership**: every Expense carries the ID of its owning User
// 4. **Optimistic updates**: Expense.Version guards concurrent read-modify-write
package models
