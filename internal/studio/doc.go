// Package studio speaks the HTTP protocol of the Studio content-curation
// application: session login with a CSRF cookie, channel listing and page
// views, topic-tree navigation, channel create/delete, and the polling
// protocol for server-side asynchronous jobs.
package studio
