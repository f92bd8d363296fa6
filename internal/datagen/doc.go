// Package datagen runs EVR data generation: it connects configuration, the
// body generator, packet wrapping and the output files.
package datagen
