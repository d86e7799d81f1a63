// Package provisioning orchestrates wearable onboarding: identifier
// generation, application key lookup, credential minting, enrollment,
// and agent packaging.
//
// The chain is ordered so that nothing durable is created until the
// credential path is proven: a credential minted for an enrollment
// that then fails is simply abandoned, never persisted or delivered.
package provisioning
