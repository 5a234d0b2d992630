// Package share builds social-share requests.
//
// A [Builder] turns text, an optional link and an optional image path into
// a [Request]: an immutable [Payload] for the preferred target package plus
// a text-only web URL. Images are staged through a [Stager]; any staging
// failure leaves the payload text-only and is reported to the logger and
// the optional diagnostics hook instead of the caller. [Builder.Share]
// falls back to the browser when the target is not installed.
package share
