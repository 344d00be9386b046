// Package controller holds the scanned controllers of the demo application.
//
// Each controller registers one instance with component.Default from init,
// so importing the package is enough for an AnnotationMapping scanning
// "webmvc/internal/app/controller/..." to find it.
package controller
