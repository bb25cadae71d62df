// Package cla provides the dense complex factorizations that gonum's LAPACK
// implementation does not: an economy Householder QR, a one-sided Jacobi
// thin SVD and the polar factor built from it, plus a matrix exponential
// evaluated through the real 2n×2n representation of a complex matrix.
//
// Matrices are row-major cblas128.General values; level-1 through level-3
// operations are delegated to gonum's cblas128.
package cla
